package prospect_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/matijepekovic/pricer-api/internal/common"
	"github.com/matijepekovic/pricer-api/internal/events"
	"github.com/matijepekovic/pricer-api/internal/prospect"
	"github.com/matijepekovic/pricer-api/internal/store"
)

type captureNotifier struct {
	events []events.Event
}

func (c *captureNotifier) Notify(_ context.Context, e events.Event) error {
	c.events = append(c.events, e)
	return nil
}

func newService(t *testing.T) (*prospect.Service, *captureNotifier) {
	t.Helper()
	capture := &captureNotifier{}
	svc, err := prospect.NewService(prospect.ServiceConfig{
		Store:  store.NewMemory(),
		Events: &events.Bus{Store: store.NewMemory(), Notifiers: []events.Notifier{capture}},
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	return svc, capture
}

func TestProspectLifecycle(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, prospect.Input{Name: "Dana Smith", Email: "dana@example.com"})
	require.NoError(t, err)
	require.Equal(t, prospect.PhaseLead, p.Phase)

	updated, err := svc.Update(ctx, p.ID, prospect.Input{Name: "Dana Smith", Phone: "555-0101"})
	require.NoError(t, err)
	require.Equal(t, "555-0101", updated.Phone)

	require.NoError(t, svc.Delete(ctx, p.ID))
	_, err = svc.Get(ctx, p.ID)
	require.True(t, common.IsAppError(err))
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Create(context.Background(), prospect.Input{Email: "dana@example.com"})
	require.True(t, common.IsAppError(err), "missing name must be rejected")

	_, err = svc.Create(context.Background(), prospect.Input{Name: "Dana", Email: "not-an-email"})
	require.True(t, common.IsAppError(err), "malformed email must be rejected")
}

func TestSetPhaseEmitsEvent(t *testing.T) {
	svc, capture := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, prospect.Input{Name: "Dana Smith"})
	require.NoError(t, err)

	moved, err := svc.SetPhase(ctx, p.ID, prospect.PhaseWon)
	require.NoError(t, err)
	require.Equal(t, prospect.PhaseWon, moved.Phase)
	require.Len(t, capture.events, 1)
	require.Equal(t, events.TopicProspectPhaseChanged, capture.events[0].Topic)

	// Same phase again is a no-op, no second event.
	_, err = svc.SetPhase(ctx, p.ID, prospect.PhaseWon)
	require.NoError(t, err)
	require.Len(t, capture.events, 1)

	_, err = svc.SetPhase(ctx, p.ID, prospect.Phase("bogus"))
	require.True(t, common.IsAppError(err))
}

func TestAttachQuotePromotesLead(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, prospect.Input{Name: "Dana Smith"})
	require.NoError(t, err)

	attached, err := svc.AttachQuote(ctx, p.ID, "quote-1")
	require.NoError(t, err)
	require.Equal(t, prospect.PhaseQuoted, attached.Phase)
	require.Equal(t, []string{"quote-1"}, attached.QuoteIDs)

	// Attaching the same quote twice does not duplicate the link.
	again, err := svc.AttachQuote(ctx, p.ID, "quote-1")
	require.NoError(t, err)
	require.Len(t, again.QuoteIDs, 1)
}

func TestSweepFiresDueRemindersOnce(t *testing.T) {
	svc, capture := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, prospect.Input{Name: "Dana Smith"})
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = svc.AddReminder(ctx, p.ID, prospect.ReminderInput{Note: "call back", DueAt: now.Add(-time.Hour)})
	require.NoError(t, err)
	_, err = svc.AddReminder(ctx, p.ID, prospect.ReminderInput{Note: "send pdf", DueAt: now.Add(time.Hour)})
	require.NoError(t, err)

	fired, err := svc.SweepDueReminders(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, fired, "only the past-due reminder fires")
	require.Len(t, capture.events, 1)
	require.Equal(t, events.TopicReminderDue, capture.events[0].Topic)

	// A second sweep finds nothing new.
	fired, err = svc.SweepDueReminders(ctx, now)
	require.NoError(t, err)
	require.Zero(t, fired)

	reloaded, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Reminders[0].FiredAt)
	require.Nil(t, reloaded.Reminders[1].FiredAt)
}
