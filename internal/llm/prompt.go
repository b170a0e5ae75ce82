package llm

import (
	"fmt"
	"strings"
)

// Prompt is an assembled system/user prompt pair ready for Generate.
type Prompt struct {
	System string
	User   string
}

const systemPrompt = `You are an enthusiastic and knowledgeable AI study companion.

Instructions:
1. Answer clearly and concisely using the notebook context provided by the user.
2. If the notebook context is empty, answer from your general knowledge, but say explicitly that the answer is not based on the user's notes.
3. Format every answer in Markdown.`

// BuildPrompt assembles the grounded prompt from the retrieved chunk
// texts and the raw question. Pure string assembly; no external calls.
// An empty context list is valid and produces the general-knowledge
// fallback path described in the system prompt.
func BuildPrompt(contexts []string, question string) Prompt {
	var sb strings.Builder

	sb.WriteString("Notebook context:\n")
	if len(contexts) == 0 {
		sb.WriteString("(no relevant notes found)\n")
	} else {
		sb.WriteString(strings.Join(contexts, "\n---\n"))
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("\nQuestion: %s\n", question))

	return Prompt{
		System: systemPrompt,
		User:   sb.String(),
	}
}
