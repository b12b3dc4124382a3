package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/brandscout/brandscout/internal/core/domain"
)

const defaultToolTimeout = 45 * time.Second

// ToolRunner shells out to the legacy discovery tool. The tool receives the
// target on argv and prints a single JSON document on stdout.
type ToolRunner struct {
	path    string
	timeout time.Duration
	logger  *zerolog.Logger
}

// NewToolRunner builds a runner for the tool at path.
func NewToolRunner(path string, timeout time.Duration, logger *zerolog.Logger) *ToolRunner {
	if timeout <= 0 {
		timeout = defaultToolTimeout
	}

	return &ToolRunner{path: path, timeout: timeout, logger: logger}
}

// Discover runs the tool with a bounded deadline and parses its output.
func (t *ToolRunner) Discover(ctx context.Context, handle, bio, niche string, limit int) ([]domain.CandidateCompetitor, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.path,
		"--handle", handle,
		"--bio", bio,
		"--niche", niche,
		"--limit", strconv.Itoa(limit),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("discovery tool timed out after %s", t.timeout)
		}

		return nil, fmt.Errorf("discovery tool: %w: %s", err, truncate(stderr.String(), 200))
	}

	t.logger.Debug().
		Dur("elapsed", time.Since(start)).
		Int("stdout_bytes", stdout.Len()).
		Msg("discovery tool finished")

	candidates, err := parseToolOutput(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("discovery tool output: %w", err)
	}

	return candidates, nil
}

// toolCandidate mirrors the loose schema different tool versions emit.
type toolCandidate struct {
	Handle     string  `json:"handle"`
	Username   string  `json:"username"`
	Platform   string  `json:"platform"`
	Reason     string  `json:"reason"`
	Relevance  float32 `json:"relevance_score"`
	Confidence float32 `json:"confidence"`
	Type       string  `json:"competitor_type"`
}

// parseToolOutput accepts either a bare JSON array or an object wrapping the
// array under one of several historical keys.
func parseToolOutput(data []byte) ([]domain.CandidateCompetitor, error) {
	var raw []toolCandidate

	if err := json.Unmarshal(data, &raw); err != nil {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("unmarshal: %w", err)
		}

		matched := false

		for _, key := range []string{"competitors", "results", "accounts", "data"} {
			payload, ok := wrapper[key]
			if !ok {
				continue
			}

			if err := json.Unmarshal(payload, &raw); err != nil {
				return nil, fmt.Errorf("unmarshal %q: %w", key, err)
			}

			matched = true

			break
		}

		if !matched {
			return nil, fmt.Errorf("no candidate list found in tool output")
		}
	}

	out := make([]domain.CandidateCompetitor, 0, len(raw))

	for _, c := range raw {
		handle := c.Handle
		if handle == "" {
			handle = c.Username
		}

		if handle == "" {
			continue
		}

		platform := c.Platform
		if platform == "" {
			platform = "instagram"
		}

		score := c.Relevance
		if score == 0 {
			score = c.Confidence
		}

		ctype := c.Type
		if ctype == "" {
			ctype = domain.CompetitorTypeDirect
		}

		out = append(out, domain.CandidateCompetitor{
			Handle:          handle,
			Platform:        platform,
			DiscoveryReason: c.Reason,
			RelevanceScore:  score,
			CompetitorType:  ctype,
		})
	}

	return out, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n])
}
