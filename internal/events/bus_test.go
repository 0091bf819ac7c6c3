package events_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matijepekovic/pricer-api/internal/events"
	"github.com/matijepekovic/pricer-api/internal/store"
)

type captureNotifier struct {
	events []events.Event
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return nil
}

func TestEmitPersistsEvent(t *testing.T) {
	mem := store.NewMemory()
	notifier := &captureNotifier{}
	bus := events.Bus{Store: mem, Notifiers: []events.Notifier{notifier}}

	ctx := context.Background()
	payload := map[string]any{"quoteId": "q-123"}
	event, err := bus.Emit(ctx, events.TopicQuoteBuilt, "q-123", payload)
	require.NoError(t, err)
	require.Equal(t, events.TopicQuoteBuilt, event.Topic)
	require.JSONEq(t, `{"quoteId":"q-123"}`, string(event.Payload))
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, notifier.events[0].ID)

	var stored events.Event
	found, err := mem.Load(ctx, "events/"+event.ID, &stored)
	require.NoError(t, err)
	require.True(t, found)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(stored.Payload, &decoded))
	require.Equal(t, "q-123", decoded["quoteId"])
}

func TestEmitRequiresTopicAndAggregate(t *testing.T) {
	bus := events.Bus{Store: store.NewMemory()}
	_, err := bus.Emit(context.Background(), "", "q-1", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicQuoteBuilt, "", nil)
	require.Error(t, err)
}
