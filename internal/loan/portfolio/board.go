// Package portfolio keeps a staff member's own loan list current.
package portfolio

import (
	"context"
	"fmt"
	"sync"

	"staff-loans/internal/common/logger"
	"staff-loans/internal/common/metrics"
	"staff-loans/internal/loan/completeness"
	"staff-loans/internal/loan/wizard"
	"staff-loans/internal/models"
	"staff-loans/internal/store"
)

// Entry is one row of the loan list.
type Entry struct {
	Application *models.LoanApplication
	Score       models.CompletenessScore
	Indicator   completeness.Indicator
	Resumable   bool
}

// Board is refreshed by a poller and read by the list and dashboard.
type Board struct {
	lister  store.ApplicationLister
	staffID string
	logger  logger.Logger

	mu      sync.RWMutex
	entries map[string]*models.LoanApplication
	order   []string
}

func NewBoard(lister store.ApplicationLister, staffID string, log logger.Logger) *Board {
	return &Board{
		lister:  lister,
		staffID: staffID,
		logger:  log.WithFields(map[string]interface{}{"component": "portfolio", "staffId": staffID}),
		entries: map[string]*models.LoanApplication{},
	}
}

// Refresh reads the staff member's applications. The server snapshot
// replaces any earlier copy so progress saved elsewhere is rescored; unknown
// applications are appended in first-seen order.
func (b *Board) Refresh(ctx context.Context) error {
	apps, err := b.lister.FetchStaffApplications(ctx, b.staffID)
	if err != nil {
		return fmt.Errorf("fetch staff applications: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	added, changed := 0, 0
	for i := range apps {
		app := apps[i].Clone()
		if app.ApplicationID == "" {
			continue
		}

		score := completeness.ScoreApplication(app)
		if known, ok := b.entries[app.ApplicationID]; ok {
			if completeness.ScoreApplication(known).Overall == score.Overall && known.Status == app.Status {
				b.entries[app.ApplicationID] = app
				continue
			}
			changed++
		} else {
			b.order = append(b.order, app.ApplicationID)
			added++
		}
		b.entries[app.ApplicationID] = app

		metrics.CompletenessScore.WithLabelValues(string(app.ProductType)).Observe(score.Overall)
	}

	if added > 0 || changed > 0 {
		b.logger.Debug("loan list updated", map[string]interface{}{"added": added, "changed": changed, "total": len(b.order)})
	}
	return nil
}

// Entries returns the list in first-seen order with scores computed by the
// shared scorer.
func (b *Board) Entries() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Entry, 0, len(b.order))
	for _, id := range b.order {
		app := b.entries[id].Clone()
		score := completeness.ScoreApplication(app)
		out = append(out, Entry{
			Application: app,
			Score:       score,
			Indicator:   completeness.IndicatorFor(score),
			Resumable:   wizard.CanResume(app),
		})
	}
	return out
}

func (b *Board) Summary() completeness.Summary {
	b.mu.RLock()
	defer b.mu.RUnlock()

	apps := make([]*models.LoanApplication, 0, len(b.order))
	for _, id := range b.order {
		apps = append(apps, b.entries[id])
	}
	return completeness.Summarize(apps)
}
