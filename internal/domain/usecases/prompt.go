package usecases

import (
	"fmt"
	"strings"

	"github.com/0xcro3dile/ragprompt/internal/domain/entities"
)

// RefusalSentence is what the model must answer when the documents do not
// contain the answer.
const RefusalSentence = "I don't find the answer in the provided documents."

// SystemPrompt is sent as the system instruction on every generate call.
const SystemPrompt = `You are a question answering system.

You must ONLY use the provided documents.

Each document contains:
- SOURCE: a link
- CONTENT: text

Rules:
- Answer ONLY using the documents
- Always cite sources using (SOURCE: link)
- Do not make up information
- Do not guess
- If the answer is not in the documents, say exactly:
  "` + RefusalSentence + `"
`

// BuildPrompt renders the documents, the question and the instruction footer.
// Documents appear as [DOCUMENT 1..n] in the order given.
func BuildPrompt(question string, docs []entities.Document) string {
	var sb strings.Builder

	sb.WriteString("\nDOCUMENTS:\n")
	for i, doc := range docs {
		fmt.Fprintf(&sb, "\n[DOCUMENT %d]\nSOURCE: %s\nCONTENT:\n%s\n\n", i+1, doc.Source, doc.Content)
	}

	sb.WriteString("\n\n---\n\nQUESTION:\n")
	sb.WriteString(question)
	sb.WriteString("\n\n---\n\nINSTRUCTIONS:\n")
	sb.WriteString("- Answer ONLY using the documents\n")
	sb.WriteString("- Always cite sources as (SOURCE: link)\n")
	sb.WriteString("- If not found say: \"" + RefusalSentence + "\"\n")
	sb.WriteString("\n---\n\nANSWER:\n")
	return sb.String()
}
