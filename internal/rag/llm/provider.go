package llm

import (
	"context"
	"fmt"

	"github.com/akolanti/GoRAG/internal/config"
)

// Provider turns a fully built prompt into an answer.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// BuildPrompt places the retrieved context and the question into the
// template every backend receives.
func BuildPrompt(contextText, question string) string {
	return fmt.Sprintf(config.PromptTemplate, contextText, question)
}
