package schedule

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/erazemk/montaza/internal/db"
	"github.com/erazemk/montaza/internal/ledger"
	"github.com/erazemk/montaza/internal/model"
	"github.com/erazemk/montaza/internal/store"
)

func TestDigest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	svc := ledger.New(database)

	item, _ := store.CreateItem(ctx, database, "Cadeira", model.CategoryFurniture, 10)
	past, _ := store.CreateEvent(ctx, database, "Feira", "Mercado", "2026-05-01")
	if _, err := svc.RecordCheckout(ctx, item.ID, past.ID, 3, ""); err != nil {
		t.Fatalf("RecordCheckout: %v", err)
	}
	store.CreateEvent(ctx, database, "Casamento", "Quinta", "2026-05-10")
	store.CreateEvent(ctx, database, "Batizado", "Igreja", "2026-05-20")
	store.CreateReminder(ctx, database, "2026-05-10", "Check the generator")

	now := time.Date(2026, 5, 10, 7, 0, 0, 0, time.UTC)
	store.RevokeToken(ctx, database, "old", now.Add(-time.Hour))
	store.RevokeToken(ctx, database, "fresh", now.Add(time.Hour))

	s := New(svc, database, slog.Default())
	s.now = func() time.Time { return now }

	d, err := s.Digest(ctx)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if d.Date != "2026-05-10" {
		t.Errorf("expected date 2026-05-10, got %q", d.Date)
	}
	if len(d.Events) != 1 || d.Events[0] != "Casamento | Quinta [scheduled]" {
		t.Errorf("unexpected events %v", d.Events)
	}
	if len(d.Reminders) != 1 || d.Reminders[0] != "Check the generator" {
		t.Errorf("unexpected reminders %v", d.Reminders)
	}
	if d.OverdueOut != 1 {
		t.Errorf("expected 1 overdue checkout, got %d", d.OverdueOut)
	}
	if d.NextEventDate != "2026-05-10" {
		t.Errorf("expected next event today, got %q", d.NextEventDate)
	}
	if d.PrunedTokens != 1 {
		t.Errorf("expected 1 pruned token, got %d", d.PrunedTokens)
	}

	revoked, _ := store.IsTokenRevoked(ctx, database, "fresh")
	if !revoked {
		t.Error("expected unexpired revocation to be kept")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New(ledger.New(db.NewTestDB(t)), nil, nil)
	if err := s.Start("whenever"); err == nil {
		s.Stop()
		t.Fatal("expected invalid schedule to be rejected")
	}
}

func TestStartStop(t *testing.T) {
	database := db.NewTestDB(t)
	s := New(ledger.New(database), database, slog.Default())
	if err := s.Start("0 7 * * *"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
}
