package ledger

import (
	"context"
	"fmt"

	"github.com/erazemk/montaza/internal/model"
	"github.com/erazemk/montaza/internal/store"
)

// recentFinishedLimit is how many finalized events the agenda lists.
const recentFinishedLimit = 5

// Event returns an event with its active roster.
func (s *Service) Event(ctx context.Context, eventID int64) (*model.Event, error) {
	e, err := store.GetEvent(ctx, s.db, eventID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}

	e.Roster, err = store.GetRoster(ctx, s.db, eventID)
	if err != nil {
		return nil, err
	}
	if e.Roster == nil {
		e.Roster = []model.Member{}
	}
	return e, nil
}

// Agenda returns the overview of one day: its events and reminders, the
// latest finalized events, the next upcoming event and how many checkouts
// are still out on events dated before that day.
func (s *Service) Agenda(ctx context.Context, date string) (*model.Agenda, error) {
	a := &model.Agenda{Date: date}

	var err error
	if a.Events, err = store.ListEventsOn(ctx, s.db, date); err != nil {
		return nil, err
	}
	for i := range a.Events {
		if a.Events[i].Roster, err = store.GetRoster(ctx, s.db, a.Events[i].ID); err != nil {
			return nil, err
		}
	}
	if a.Reminders, err = store.ListReminders(ctx, s.db, date); err != nil {
		return nil, err
	}
	if a.RecentFinished, err = store.RecentFinalized(ctx, s.db, recentFinishedLimit); err != nil {
		return nil, err
	}
	if a.Next, err = store.NextEvent(ctx, s.db, date); err != nil {
		return nil, err
	}
	if a.OverdueOut, err = store.CountOverdue(ctx, s.db, date); err != nil {
		return nil, err
	}

	if a.Events == nil {
		a.Events = []model.Event{}
	}
	if a.Reminders == nil {
		a.Reminders = []model.Reminder{}
	}
	if a.RecentFinished == nil {
		a.RecentFinished = []model.Event{}
	}
	return a, nil
}
