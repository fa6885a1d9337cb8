package analyzer

import (
	"testing"
	"unicode/utf8"
)

func TestKeywordExtractor_Extract(t *testing.T) {
	ext := NewKeywordExtractor()

	keywords := ext.Extract("What is the refund policy for damaged items?")
	expected := []string{"refund", "policy", "damaged", "items"}

	if len(keywords) != len(expected) {
		t.Fatalf("expected %d keywords, got %d: %v", len(expected), len(keywords), keywords)
	}
	for i, k := range expected {
		if keywords[i] != k {
			t.Errorf("keyword %d: expected %q, got %q", i, k, keywords[i])
		}
	}
}

func TestKeywordExtractor_SpanishStopwords(t *testing.T) {
	ext := NewKeywordExtractor()

	keywords := ext.Extract("¿Cuál es la política de devoluciones del contrato?")
	for _, k := range keywords {
		if ext.IsStopword(k) {
			t.Errorf("stopword %q should be removed, got %v", k, keywords)
		}
	}

	want := map[string]bool{"política": true, "devoluciones": true, "contrato": true}
	if len(keywords) != len(want) {
		t.Fatalf("expected %d keywords, got %v", len(want), keywords)
	}
	for _, k := range keywords {
		if !want[k] {
			t.Errorf("unexpected keyword %q", k)
		}
	}
}

func TestKeywordExtractor_ShortWordRemoval(t *testing.T) {
	ext := NewKeywordExtractor()

	keywords := ext.Extract("x y go z ok")
	for _, k := range keywords {
		if utf8.RuneCountInString(k) < MinKeywordLen {
			t.Errorf("short word should be removed: %s", k)
		}
	}
	if len(keywords) != 2 {
		t.Errorf("expected [go ok], got %v", keywords)
	}
}

func TestKeywordExtractor_KeepsDuplicatesInOrder(t *testing.T) {
	ext := NewKeywordExtractor()

	keywords := ext.Extract("invoice total invoice date")
	expected := []string{"invoice", "total", "invoice", "date"}
	if len(keywords) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, keywords)
	}
	for i := range expected {
		if keywords[i] != expected[i] {
			t.Errorf("expected %v, got %v", expected, keywords)
			break
		}
	}
}

func TestKeywordExtractor_EmptyInput(t *testing.T) {
	ext := NewKeywordExtractor()

	if got := ext.Extract(""); len(got) != 0 {
		t.Errorf("expected 0 keywords for empty input, got %v", got)
	}
	if got := ext.Extract("the and of a"); len(got) != 0 {
		t.Errorf("expected 0 keywords for stopword-only input, got %v", got)
	}
}
