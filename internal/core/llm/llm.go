// Package llm provides the text-generation provider used by the research
// engine, with rate limiting and a circuit breaker around the OpenAI API.
package llm

import (
	"context"
	"strings"
)

// Params controls a single generation request.
type Params struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// Result is the outcome of a generation request.
type Result struct {
	Text       string
	TokensUsed int
}

// Client generates text from a system and user prompt. Provider failures
// surface as errors; the caller decides whether they are fatal.
type Client interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, params Params) (Result, error)
}

// ExtractJSON tries to extract JSON from a response that might have extra
// text around it. Whichever delimiter opens first decides whether the
// payload is treated as an object or an array.
func ExtractJSON(text string) string {
	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")

	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		if end := strings.LastIndex(text, "]"); end > arrStart {
			return text[arrStart : end+1]
		}
	}

	if objStart != -1 {
		if end := strings.LastIndex(text, "}"); end > objStart {
			return text[objStart : end+1]
		}
	}

	return text
}
