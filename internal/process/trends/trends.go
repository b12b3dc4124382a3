// Package trends wraps the external interest-over-time tool and persists
// its output per (job, keyword, region).
package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/brandscout/brandscout/internal/core/domain"
	"github.com/brandscout/brandscout/internal/core/ports"
	db "github.com/brandscout/brandscout/internal/storage"
)

const (
	stepName = "trends"

	defaultTimeout = 60 * time.Second
)

// Collector shells out to the trends tool and stores the series it returns.
type Collector struct {
	path    string
	timeout time.Duration
	region  string
	store   ports.TrendStore
	logger  *zerolog.Logger
}

// NewCollector builds a collector for the tool at path. An empty region
// means worldwide.
func NewCollector(path string, timeout time.Duration, region string, store ports.TrendStore, logger *zerolog.Logger) *Collector {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Collector{path: path, timeout: timeout, region: region, store: store, logger: logger}
}

// toolOutput is the tool's stdout contract: a map of keyword to a series of
// timestamped interest values.
type toolOutput struct {
	Region string                       `json:"region"`
	Series map[string][]json.RawMessage `json:"series"`
}

// Result aggregates one collection pass.
type Result struct {
	Saved  int
	Errors []domain.StepError
}

// Collect fetches interest series for the brand and niche keywords and
// persists one snapshot per keyword. Tool failure is a recorded step error,
// never fatal to the run.
func (c *Collector) Collect(ctx context.Context, rctx domain.ResearchContext) Result {
	var result Result

	keywords := Keywords(rctx)
	if len(keywords) == 0 {
		return result
	}

	out, err := c.run(ctx, keywords)
	if err != nil {
		result.Errors = append(result.Errors, domain.StepError{Step: stepName, Layer: "tool", Err: err})

		c.logger.Warn().Err(err).Str("job_id", rctx.JobID).Msg("trends tool failed")

		return result
	}

	region := out.Region
	if region == "" {
		region = c.region
	}

	for keyword, series := range out.Series {
		points, err := json.Marshal(series)
		if err != nil {
			result.Errors = append(result.Errors, domain.StepError{Step: stepName, Layer: keyword, Err: err})
			continue
		}

		snap := db.TrendSnapshot{
			JobID:   rctx.JobID,
			Keyword: keyword,
			Region:  region,
			Points:  points,
		}

		if err := c.store.SaveTrendSnapshot(ctx, &snap); err != nil {
			result.Errors = append(result.Errors, domain.StepError{Step: stepName, Layer: keyword, Err: err})
			continue
		}

		result.Saved++
	}

	c.logger.Info().
		Str("job_id", rctx.JobID).
		Int("saved", result.Saved).
		Msg("trend collection done")

	return result
}

// Keywords derives the query terms from the research context.
func Keywords(rctx domain.ResearchContext) []string {
	var keywords []string

	if rctx.BrandName != "" {
		keywords = append(keywords, rctx.BrandName)
	}

	if rctx.Niche != "" && rctx.Niche != rctx.BrandName {
		keywords = append(keywords, rctx.Niche)
	}

	return keywords
}

func (c *Collector) run(ctx context.Context, keywords []string) (*toolOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{"--region", c.region}
	for _, kw := range keywords {
		args = append(args, "--keyword", kw)
	}

	cmd := exec.CommandContext(ctx, c.path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("trends tool timed out after %s", c.timeout)
		}

		msg := stderr.String()
		if len(msg) > 200 {
			msg = db.SanitizeUTF8(msg[:200])
		}

		return nil, fmt.Errorf("trends tool: %w: %s", err, msg)
	}

	var out toolOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("trends tool output: %w", err)
	}

	return &out, nil
}
