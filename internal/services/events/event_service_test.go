package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/interfaces"
)

func TestPublishSync_DeliversToSubscriber(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	delivered := 0
	handler := func(ctx context.Context, event interfaces.Event) error {
		delivered++
		return nil
	}
	require.NoError(t, svc.Subscribe(interfaces.EventJobCreated, handler))

	require.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{
		Type: interfaces.EventJobCreated,
	}))
	assert.Equal(t, 1, delivered)
}

func TestUnsubscribe_RemovesHandler(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	delivered := 0
	handler := func(ctx context.Context, event interfaces.Event) error {
		delivered++
		return nil
	}
	require.NoError(t, svc.Subscribe(interfaces.EventJobCreated, handler))
	require.NoError(t, svc.Unsubscribe(interfaces.EventJobCreated, handler))

	require.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{
		Type: interfaces.EventJobCreated,
	}))
	assert.Equal(t, 0, delivered)
}

func TestUnsubscribe_UnknownHandlerErrors(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	stranger := func(ctx context.Context, event interfaces.Event) error { return nil }
	assert.Error(t, svc.Unsubscribe(interfaces.EventJobCreated, stranger))
}
