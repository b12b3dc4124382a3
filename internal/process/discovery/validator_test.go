package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandscout/brandscout/internal/core/domain"
	"github.com/brandscout/brandscout/internal/core/llm"
)

func candidatesFixture() []domain.CandidateCompetitor {
	return []domain.CandidateCompetitor{
		{Handle: "bean_supreme", Platform: "instagram", DiscoveryReason: "profile match"},
		{Handle: "roast_rivals", Platform: "instagram", DiscoveryReason: "keyword match"},
	}
}

func TestLLMValidator_ValidateBatch(t *testing.T) {
	logger := zerolog.Nop()
	client := llm.NewMock()
	client.Response = func(_, _ string) (llm.Result, error) {
		return llm.Result{Text: `Here is my assessment:
[
  {"handle": "bean_supreme", "platform": "instagram", "confidence": 0.85, "keep": true},
  {"handle": "roast_rivals", "platform": "instagram", "confidence": 0.3, "keep": false}
]`}, nil
	}

	v := NewLLMValidator(client, llm.Params{Model: "test"}, &logger)

	verdicts, err := v.ValidateBatch(context.Background(), candidatesFixture(), "specialty coffee", "acme_coffee")
	require.NoError(t, err)
	require.Len(t, verdicts, 2)

	assert.Equal(t, "bean_supreme", verdicts[0].Handle)
	assert.InDelta(t, 0.85, verdicts[0].Confidence, 0.001)
	assert.True(t, verdicts[0].Keep)
	assert.False(t, verdicts[1].Keep)

	// The batch prompt carries every candidate plus the target context.
	require.Equal(t, 1, client.CallCount())

	prompt := client.Calls()[0].UserPrompt
	assert.True(t, strings.Contains(prompt, "bean_supreme"))
	assert.True(t, strings.Contains(prompt, "roast_rivals"))
	assert.True(t, strings.Contains(prompt, "acme_coffee"))
	assert.True(t, strings.Contains(prompt, "specialty coffee"))
}

func TestLLMValidator_EmptyBatchSkipsGeneration(t *testing.T) {
	logger := zerolog.Nop()
	client := llm.NewMock()
	v := NewLLMValidator(client, llm.Params{}, &logger)

	verdicts, err := v.ValidateBatch(context.Background(), nil, "niche", "target")
	require.NoError(t, err)
	assert.Empty(t, verdicts)
	assert.Equal(t, 0, client.CallCount())
}

func TestLLMValidator_BadResponses(t *testing.T) {
	tests := []struct {
		name     string
		response func(systemPrompt, userPrompt string) (llm.Result, error)
	}{
		{
			name: "provider error",
			response: func(_, _ string) (llm.Result, error) {
				return llm.Result{}, errors.New("circuit open")
			},
		},
		{
			name: "no JSON at all",
			response: func(_, _ string) (llm.Result, error) {
				return llm.Result{Text: "I cannot help with that."}, nil
			},
		},
		{
			name: "malformed JSON",
			response: func(_, _ string) (llm.Result, error) {
				return llm.Result{Text: `[{"handle": "x", "confidence": }]`}, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := zerolog.Nop()
			client := llm.NewMock()
			client.Response = tt.response

			v := NewLLMValidator(client, llm.Params{}, &logger)

			_, err := v.ValidateBatch(context.Background(), candidatesFixture(), "niche", "target")
			require.Error(t, err)
		})
	}
}
