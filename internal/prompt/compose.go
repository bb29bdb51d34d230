// Package prompt renders conversation history, retrieved documents and the
// user query into a single context-bounded instruction prompt.
package prompt

import (
	"fmt"
	"strings"

	"github.com/ent0n29/finchat/internal/history"
	"github.com/ent0n29/finchat/internal/retrieval"
)

// Placeholder sentences substituted when a section would otherwise be blank.
const (
	NoHistoryPlaceholder   = "No prior conversation history available."
	NoDocumentsPlaceholder = "No relevant documents found."
)

// Fixed answer policy strings the model is instructed to use.
const (
	MathRefusal       = "Mathematical operations are not allowed."
	NoInformationText = "No relevant information found."
)

const instructionHeader = `You are an AI designed to answer questions strictly and exclusively based on the provided context and conversation history.

Do not use external knowledge or assumptions to answer questions.
Do not perform mathematical calculations or estimations under any circumstances.
Do not provide generic answers or information that is not explicitly supported by the provided documents.
If no context or relevant documents are available, respond with: "` + NoInformationText + `"`

const instructionGuidelines = `Guidelines for Answer:
Provide the Final Answer concisely and only if it is explicitly supported by the context or relevant documents.
Avoid step-by-step reasoning, generic statements, or assumptions. Respond only to what is explicitly addressed in the provided documents.
If the query requires calculations or mathematical operations, respond with: "` + MathRefusal + `"
If no relevant information exists in the documents or conversation history, respond with: "` + NoInformationText + `"
Include an Explanation that highlights how the answer was derived exclusively from the relevant documents or context, or why no information was found.`

// Compose is a pure function of its three inputs. History is rendered in
// the exact order given: the caller holds it most-recent-first and that
// ordering is preserved verbatim in the rendered text.
func Compose(turns []history.Turn, docs []retrieval.Document, query string) string {
	var b strings.Builder
	b.WriteString(instructionHeader)
	b.WriteString("\n\n### Conversation History:\n")
	b.WriteString(renderHistory(turns))
	b.WriteString("\n\n### Relevant Documents:\n")
	b.WriteString(renderDocuments(docs))
	b.WriteString("\n\n### User Query:\n")
	b.WriteString(query)
	b.WriteString("\n\n")
	b.WriteString(instructionGuidelines)
	return b.String()
}

func renderHistory(turns []history.Turn) string {
	if len(turns) == 0 {
		return NoHistoryPlaceholder
	}
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		parts = append(parts, fmt.Sprintf("User: %s\nAI: %s", t.Query, t.Response))
	}
	return strings.Join(parts, "\n\n")
}

func renderDocuments(docs []retrieval.Document) string {
	if len(docs) == 0 {
		return NoDocumentsPlaceholder
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.Text)
	}
	return strings.Join(parts, "\n\n")
}
