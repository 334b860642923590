// Package schedule runs the daily agenda digest.
package schedule

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/erazemk/montaza/internal/ledger"
	"github.com/erazemk/montaza/internal/model"
	"github.com/erazemk/montaza/internal/store"
)

const digestTimeout = time.Minute

// Digest is a summary of one day.
type Digest struct {
	Date          string
	Events        []string
	Reminders     []string
	OverdueOut    int
	PrunedTokens  int64
	NextEventDate string
}

// Scheduler runs the digest on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	ledger *ledger.Service
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// New creates a scheduler. Call Start to run it.
func New(svc *ledger.Service, database *sql.DB, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cronLogger{logger})),
		ledger: svc,
		db:     database,
		logger: logger,
		now:    time.Now,
	}
}

// Start schedules the digest with the given standard cron spec and starts
// the cron runner.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runDigest); err != nil {
		return fmt.Errorf("scheduling digest %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("digest scheduled", "schedule", spec)
	return nil
}

// Stop stops the runner and waits for a running digest to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
	defer cancel()

	d, err := s.Digest(ctx)
	if err != nil {
		s.logger.Error("daily digest failed", "error", err)
		return
	}

	s.logger.Info("daily digest",
		"date", d.Date,
		"events", len(d.Events),
		"reminders", len(d.Reminders),
		"overdue_checkouts", d.OverdueOut,
		"next_event", d.NextEventDate,
		"pruned_tokens", d.PrunedTokens,
	)
	for _, e := range d.Events {
		s.logger.Info("today", "event", e)
	}
	for _, r := range d.Reminders {
		s.logger.Info("today", "reminder", r)
	}
	if d.OverdueOut > 0 {
		s.logger.Warn("checkouts still out on past events", "count", d.OverdueOut)
	}
}

// Digest builds today's summary and prunes expired revoked tokens.
func (s *Scheduler) Digest(ctx context.Context) (*Digest, error) {
	now := s.now()
	date := now.Format(model.DateLayout)

	agenda, err := s.ledger.Agenda(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("building agenda: %w", err)
	}

	d := &Digest{Date: date, OverdueOut: agenda.OverdueOut}
	for _, e := range agenda.Events {
		d.Events = append(d.Events, fmt.Sprintf("%s [%s]", e.Label(), e.Status))
	}
	for _, r := range agenda.Reminders {
		d.Reminders = append(d.Reminders, r.Message)
	}
	if agenda.Next != nil {
		d.NextEventDate = agenda.Next.Date
	}

	d.PrunedTokens, err = store.PruneRevokedTokens(ctx, s.db, now)
	if err != nil {
		return nil, fmt.Errorf("pruning revoked tokens: %w", err)
	}

	return d, nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, append(keysAndValues, "component", "cron")...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "component", "cron", "error", err)...)
}
