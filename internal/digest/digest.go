// Package digest builds and schedules the pending-review summary: a
// periodic reminder listing change requests that have sat un-reviewed
// longer than the configured threshold.
package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/crewplanhq/crewplan/internal/models"
	"github.com/crewplanhq/crewplan/internal/notify"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom,
// month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Entry is one stale pending change request in a report.
type Entry struct {
	ChangeRequestID string
	Type            string
	WBSNumber       string
	Submitter       string
	Age             time.Duration
}

// Report is a pending-review digest. Entries are oldest first.
type Report struct {
	GeneratedAt time.Time
	Entries     []Entry
}

// Build returns the pending change requests older than the given age,
// oldest first, or nil when there is nothing to report.
func Build(db *gorm.DB, olderThan time.Duration) (*Report, error) {
	now := time.Now()
	cutoff := now.Add(-olderThan)

	var crs []models.ChangeRequest
	err := db.
		Where("accepted IS NULL AND created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&crs).Error
	if err != nil {
		return nil, fmt.Errorf("digest: list stale requests: %w", err)
	}
	if len(crs) == 0 {
		return nil, nil
	}

	report := &Report{GeneratedAt: now}
	for _, cr := range crs {
		entry := Entry{
			ChangeRequestID: cr.ID,
			Type:            cr.Type,
			Age:             now.Sub(cr.CreatedAt),
		}
		var elem models.WBSElement
		if err := db.Select("wbs_number").Where("id = ?", cr.WBSElementID).First(&elem).Error; err == nil {
			entry.WBSNumber = elem.WBSNumber
		}
		var submitter models.User
		if err := db.Select("first_name", "last_name").Where("id = ?", cr.SubmitterID).First(&submitter).Error; err == nil {
			entry.Submitter = submitter.FirstName + " " + submitter.LastName
		}
		report.Entries = append(report.Entries, entry)
	}
	return report, nil
}

// Event formats a report as a notification event.
func Event(r *Report) notify.Event {
	var b strings.Builder
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "%s (%s, %s) from %s, pending %dd\n",
			e.ChangeRequestID, notify.TypeLabel(e.Type), e.WBSNumber, e.Submitter, int(e.Age.Hours()/24))
	}
	noun := "requests"
	if len(r.Entries) == 1 {
		noun = "request"
	}
	return notify.Event{
		Title:    fmt.Sprintf("%d change %s awaiting review", len(r.Entries), noun),
		Body:     strings.TrimRight(b.String(), "\n"),
		Severity: notify.SeverityWarning,
	}
}

// StaleAge converts the configured stale-days threshold to a duration.
func StaleAge(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}

// NextRun parses a 5-field cron expression and returns the duration until
// the next fire time.
func NextRun(expr string) (time.Duration, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0, fmt.Errorf("digest: parse schedule %q: %w", expr, err)
	}
	d := time.Until(sched.Next(time.Now()))
	if d < 0 {
		d = 0
	}
	return d, nil
}

// Runner periodically builds the digest and announces it through the
// dispatcher.
type Runner struct {
	db         *gorm.DB
	dispatcher *notify.Dispatcher
	schedule   string
	olderThan  time.Duration
}

// NewRunner builds a Runner. staleDays is the age at which a pending
// request lands in the digest.
func NewRunner(db *gorm.DB, dispatcher *notify.Dispatcher, schedule string, staleDays int) *Runner {
	return &Runner{
		db:         db,
		dispatcher: dispatcher,
		schedule:   schedule,
		olderThan:  StaleAge(staleDays),
	}
}

// Run fires the digest on the configured schedule until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	for {
		wait, err := NextRun(r.schedule)
		if err != nil {
			return err
		}
		log.Debug("digest scheduled", "in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if err := r.RunOnce(ctx); err != nil {
			log.Error("digest run failed", "err", err)
		}
	}
}

// RunOnce builds and announces a single digest. A report with nothing in
// it is skipped.
func (r *Runner) RunOnce(ctx context.Context) error {
	report, err := Build(r.db, r.olderThan)
	if err != nil {
		return err
	}
	if report == nil {
		log.Debug("digest skipped, nothing pending")
		return nil
	}
	log.Info("digest sent", "entries", len(report.Entries))
	r.dispatcher.Announce(ctx, Event(report))
	return nil
}
