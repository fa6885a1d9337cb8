package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinKeywordLen is the minimum keyword length in runes.
const MinKeywordLen = 2

// KeywordExtractor turns free text into a filtered keyword list.
type KeywordExtractor struct {
	stopwords map[string]struct{}
	minLen    int
}

// NewKeywordExtractor creates an extractor with the default English and
// Spanish stop-word set.
func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{
		stopwords: defaultStopwords(),
		minLen:    MinKeywordLen,
	}
}

// Extract returns keywords in order of first occurrence. Duplicates are
// kept; scoring only checks membership.
func (e *KeywordExtractor) Extract(text string) []string {
	fields := strings.Fields(Normalize(text))
	keywords := make([]string, 0, len(fields))

	for _, field := range fields {
		word := strings.TrimFunc(field, isEdgePunct)
		if utf8.RuneCountInString(word) < e.minLen {
			continue
		}
		if e.IsStopword(word) {
			continue
		}
		keywords = append(keywords, word)
	}

	return keywords
}

// IsStopword reports whether word (already lower-cased) is filtered out.
func (e *KeywordExtractor) IsStopword(word string) bool {
	_, ok := e.stopwords[word]
	return ok
}

func isEdgePunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// defaultStopwords returns conjunctions, articles, prepositions, pronouns
// and auxiliary verbs in English and Spanish.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		// English
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "must", "shall", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
		"these", "those", "there", "then", "than", "into", "about",
		"am", "me", "my", "i",
		// Spanish
		"el", "la", "los", "las", "un", "una", "unos", "unas", "lo",
		"y", "e", "o", "u", "ni", "pero", "sino", "que", "de", "del",
		"al", "en", "por", "para", "con", "sin", "sobre", "entre",
		"es", "son", "era", "eran", "fue", "fueron", "ser", "sido",
		"está", "están", "estaba", "estar", "ha", "han", "hay", "haber",
		"había", "se", "su", "sus", "le", "les", "me", "te", "nos",
		"mi", "tu", "como", "cuando", "donde", "qué", "cuál", "cuáles",
		"quién", "cómo", "dónde", "cuándo", "este", "esta", "estos",
		"estas", "ese", "esa", "eso", "esto", "muy", "más", "ya",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
