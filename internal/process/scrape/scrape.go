// Package scrape wraps the external profile-scraper tools and persists one
// snapshot per (job, platform, handle) for the target brand and its top
// discovered competitors.
package scrape

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
	"github.com/brandscout/brandscout/internal/platform/observability"
	db "github.com/brandscout/brandscout/internal/storage"
)

const (
	stepName = "scrape"

	defaultTimeout = 120 * time.Second
	defaultTopN    = 5

	// The target brand has no platform on the research context; the
	// primary social surface is assumed.
	targetPlatform = "instagram"
)

// Target is one profile to scrape.
type Target struct {
	Platform string
	Handle   string
}

// Scraper shells out to the profile tool once per target. The tool receives
// the platform and handle on argv and prints a single JSON document.
type Scraper struct {
	path    string
	timeout time.Duration
	topN    int
	store   ports.ProfileStore
	logger  *zerolog.Logger
}

// NewScraper builds a scraper for the tool at path.
func NewScraper(path string, timeout time.Duration, topN int, store ports.ProfileStore, logger *zerolog.Logger) *Scraper {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if topN <= 0 {
		topN = defaultTopN
	}

	return &Scraper{path: path, timeout: timeout, topN: topN, store: store, logger: logger}
}

// toolOutput is the scraper tool's stdout contract.
type toolOutput struct {
	Handle         string `json:"handle"`
	FullName       string `json:"full_name"`
	Bio            string `json:"bio"`
	FollowerCount  int64  `json:"follower_count"`
	FollowingCount int64  `json:"following_count"`
	TotalPosts     int64  `json:"total_posts"`
	IsVerified     bool   `json:"is_verified"`
	Error          string `json:"error"`
}

// Result aggregates one scrape pass.
type Result struct {
	Saved  int
	Errors []domain.StepError
}

// Targets derives the profiles to scrape: the brand itself, then the
// first topN competitors in the order given. The competitor slice is
// expected sorted by relevance. The brand's own handle is never scraped
// twice even when discovery re-surfaced it.
func (s *Scraper) Targets(rctx domain.ResearchContext, competitors []domain.CandidateCompetitor) []Target {
	var targets []Target

	seen := make(map[string]bool)

	if handle := domain.NormalizeHandle(rctx.Handle); handle != "" {
		targets = append(targets, Target{Platform: targetPlatform, Handle: handle})
		seen[targetPlatform+"/"+handle] = true
	}

	for _, c := range competitors {
		if len(targets) >= s.topN+1 {
			break
		}

		handle := domain.NormalizeHandle(c.Handle)
		key := c.Platform + "/" + handle

		if handle == "" || seen[key] {
			continue
		}

		seen[key] = true
		targets = append(targets, Target{Platform: c.Platform, Handle: handle})
	}

	return targets
}

// ScrapeProfiles runs the tool for every target and persists the snapshots.
// A failed target is a recorded step error, never fatal to the run.
func (s *Scraper) ScrapeProfiles(ctx context.Context, rctx domain.ResearchContext, competitors []domain.CandidateCompetitor) Result {
	var result Result

	for _, target := range s.Targets(rctx, competitors) {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, domain.StepError{Step: stepName, Layer: target.Handle, Err: ctx.Err()})

			return result
		}

		snap, err := s.scrapeOne(ctx, rctx.JobID, target)
		if err != nil {
			result.Errors = append(result.Errors, domain.StepError{Step: stepName, Layer: target.Handle, Err: err})

			s.logger.Warn().Err(err).
				Str("job_id", rctx.JobID).
				Str("handle", target.Handle).
				Msg("profile scrape failed")

			continue
		}

		if err := s.store.SaveProfileSnapshot(ctx, snap); err != nil {
			result.Errors = append(result.Errors, domain.StepError{Step: stepName, Layer: target.Handle, Err: err})
			continue
		}

		observability.ProfilesScraped.Inc()
		result.Saved++
	}

	s.logger.Info().
		Str("job_id", rctx.JobID).
		Int("saved", result.Saved).
		Int("failed", len(result.Errors)).
		Msg("profile scraping done")

	return result
}

func (s *Scraper) scrapeOne(ctx context.Context, jobID string, target Target) (*db.ProfileSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.path, "--platform", target.Platform, "--handle", target.Handle)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("scraper timed out after %s", s.timeout)
		}

		msg := stderr.String()
		if len(msg) > 200 {
			msg = db.SanitizeUTF8(msg[:200])
		}

		return nil, fmt.Errorf("scraper: %w: %s", err, msg)
	}

	var out toolOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("scraper output: %w", err)
	}

	// The tool reports its own failures as {"error": "..."} on stdout.
	if out.Error != "" {
		return nil, fmt.Errorf("scraper: %s", out.Error)
	}

	handle := domain.NormalizeHandle(out.Handle)
	if handle == "" {
		handle = target.Handle
	}

	return &db.ProfileSnapshot{
		JobID:          jobID,
		Platform:       target.Platform,
		Handle:         handle,
		FullName:       out.FullName,
		Bio:            out.Bio,
		FollowerCount:  out.FollowerCount,
		FollowingCount: out.FollowingCount,
		PostCount:      out.TotalPosts,
		IsVerified:     out.IsVerified,
		Payload:        stdout.Bytes(),
	}, nil
}
