package generator

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"groundqa/internal/domain"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

var answerTemplate = template.Must(
	template.New("answer_prompt.txt").Funcs(templateFuncs()).ParseFS(promptTemplates, "templates/answer_prompt.txt"),
)

// SystemPrompt is sent ahead of every answer prompt.
const SystemPrompt = "You answer questions from supplied document excerpts and reply only with JSON."

// PromptData is the input of the answer template.
type PromptData struct {
	Question string
	Chunks   []domain.Chunk
}

// BuildPrompt renders the answer prompt for question and chunks.
func BuildPrompt(question string, chunks []domain.Chunk) (string, error) {
	var buf bytes.Buffer
	if err := answerTemplate.Execute(&buf, PromptData{Question: question, Chunks: chunks}); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatChunks": func(chunks []domain.Chunk) string {
			var sb strings.Builder
			for i, c := range chunks {
				sb.WriteString(fmt.Sprintf("### [%d] %s (doc_id=%s chunk_id=%s chars %d-%d)\n",
					i+1, c.DocName, c.DocID, c.ID, c.StartChar, c.EndChar))
				sb.WriteString(c.Text)
				sb.WriteString("\n\n")
			}
			return sb.String()
		},
	}
}
