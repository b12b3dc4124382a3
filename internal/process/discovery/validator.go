package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/brandscout/brandscout/internal/core/domain"
	"github.com/brandscout/brandscout/internal/core/llm"
)

const validatorSystemPrompt = `You review candidate competitor accounts for a social media brand.
For each candidate, judge whether it is plausibly a real, active account competing
in the given niche. Respond with a JSON array only, one object per candidate:
[{"handle": "...", "platform": "...", "confidence": 0.0, "keep": true}]
Confidence is 0 to 1. Set keep to false for obvious non-accounts, spam,
celebrities far outside the niche, or the target itself.`

// LLMValidator scores a candidate batch with a language model.
type LLMValidator struct {
	client llm.Client
	params llm.Params
	logger *zerolog.Logger
}

// NewLLMValidator wires the validator to a model client.
func NewLLMValidator(client llm.Client, params llm.Params, logger *zerolog.Logger) *LLMValidator {
	return &LLMValidator{client: client, params: params, logger: logger}
}

type validatorVerdict struct {
	Handle     string  `json:"handle"`
	Platform   string  `json:"platform"`
	Confidence float32 `json:"confidence"`
	Keep       bool    `json:"keep"`
}

// ValidateBatch sends the whole batch in one prompt and parses per-candidate
// verdicts back out.
func (v *LLMValidator) ValidateBatch(ctx context.Context, candidates []domain.CandidateCompetitor, niche, targetHandle string) ([]ValidationResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "Target: @%s\nNiche: %s\nCandidates:\n", targetHandle, niche)

	for _, c := range candidates {
		fmt.Fprintf(&sb, "- %s on %s (found via: %s)\n", c.Handle, c.Platform, c.DiscoveryReason)
	}

	res, err := v.client.Generate(ctx, validatorSystemPrompt, sb.String(), v.params)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	payload := llm.ExtractJSON(res.Text)
	if payload == "" {
		return nil, fmt.Errorf("no JSON in validator response")
	}

	var verdicts []validatorVerdict
	if err := json.Unmarshal([]byte(payload), &verdicts); err != nil {
		return nil, fmt.Errorf("unmarshal verdicts: %w", err)
	}

	out := make([]ValidationResult, 0, len(verdicts))

	for _, verdict := range verdicts {
		out = append(out, ValidationResult{
			Handle:     verdict.Handle,
			Platform:   verdict.Platform,
			Confidence: verdict.Confidence,
			Keep:       verdict.Keep,
		})
	}

	v.logger.Debug().
		Int("candidates", len(candidates)).
		Int("verdicts", len(out)).
		Msg("validation batch done")

	return out, nil
}
