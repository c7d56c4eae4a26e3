package planner

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/cadence/internal/ics"
	"github.com/hray3182/cadence/internal/models"
)

// Export window around today.
const (
	exportPastDays   = 30
	exportFutureDays = 365
)

// Export renders the reminders due from a month ago to a year ahead as an
// iCalendar document. It returns ics.ErrEmpty when there is nothing to export.
func (p *Planner) Export(ctx context.Context) ([]byte, error) {
	now := p.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.loc)
	return p.ExportRange(ctx, today.AddDate(0, 0, -exportPastDays), today.AddDate(0, 0, exportFutureDays))
}

// ExportRange renders the reminders due in [start, end).
func (p *Planner) ExportRange(ctx context.Context, start, end time.Time) ([]byte, error) {
	reminders, err := p.ListRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	groups, err := p.ListGroups(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.Group, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}
	var buf bytes.Buffer
	if err := ics.Export(&buf, reminders, byID, p.Now()); err != nil {
		return nil, fmt.Errorf("failed to export calendar: %w", err)
	}
	return buf.Bytes(), nil
}
