// Package checks turns probe outcomes into persisted check results.
package checks

import (
	"context"
	"fmt"

	"sitewatch/internal/logging"
	"sitewatch/internal/probe"
	"sitewatch/internal/store"
)

// Recorder persists probe outcomes. Store failures propagate to the caller;
// there is no retry.
type Recorder struct {
	store  store.Store
	logger logging.Logger
}

// NewRecorder creates a Recorder backed by the given store.
func NewRecorder(st store.Store, logger logging.Logger) *Recorder {
	return &Recorder{
		store:  st,
		logger: logger.With(logging.Field{Key: "component", Value: "recorder"}),
	}
}

// Record builds a CheckResult for websiteID from out and inserts it. The
// store assigns the id and creation timestamp. Returns the stored record.
func (r *Recorder) Record(ctx context.Context, websiteID string, out probe.Outcome) (*store.CheckResult, error) {
	matches := out.KeywordMatches
	if matches == nil {
		matches = []string{}
	}

	result := &store.CheckResult{
		WebsiteID:      websiteID,
		StatusCode:     out.StatusCode,
		IsUp:           out.IsUp,
		ResponseTimeMS: out.ResponseTimeMS,
		KeywordMatches: matches,
		Error:          out.Error,
	}
	if err := r.store.InsertCheckResult(ctx, result); err != nil {
		return nil, fmt.Errorf("recording check result: %w", err)
	}

	r.logger.Info("recorded check result",
		logging.Field{Key: "website_id", Value: websiteID},
		logging.Field{Key: "check_id", Value: result.ID.Hex()},
		logging.Field{Key: "is_up", Value: result.IsUp})

	return result, nil
}
