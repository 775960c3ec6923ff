package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatrick/crease/internal/refresh"
)

func testEvent(jobID, eventType string) refresh.Event {
	return refresh.Event{
		JobID:   jobID,
		Type:    eventType,
		Message: "test",
		At:      time.Now(),
	}
}

func TestClientMatchesFilter(t *testing.T) {
	tests := []struct {
		name     string
		filter   SubscriptionFilter
		event    refresh.Event
		expected bool
	}{
		{
			name:     "empty filter matches everything",
			filter:   SubscriptionFilter{},
			event:    testEvent("job-1", "progress"),
			expected: true,
		},
		{
			name:     "job filter matches",
			filter:   SubscriptionFilter{Jobs: []string{"job-1", "job-2"}},
			event:    testEvent("job-1", "progress"),
			expected: true,
		},
		{
			name:     "job filter doesn't match",
			filter:   SubscriptionFilter{Jobs: []string{"job-2"}},
			event:    testEvent("job-1", "progress"),
			expected: false,
		},
		{
			name:     "type filter matches",
			filter:   SubscriptionFilter{Types: []string{"completed", "failed"}},
			event:    testEvent("job-1", "completed"),
			expected: true,
		},
		{
			name:     "type filter doesn't match",
			filter:   SubscriptionFilter{Types: []string{"completed"}},
			event:    testEvent("job-1", "progress"),
			expected: false,
		},
		{
			name:     "both filters must match",
			filter:   SubscriptionFilter{Jobs: []string{"job-1"}, Types: []string{"completed"}},
			event:    testEvent("job-1", "progress"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient("test", nil, nil)
			c.SetFilter(tt.filter)
			assert.Equal(t, tt.expected, c.matchesFilter(tt.event))
		})
	}
}

func TestTrySendReportsFullBuffer(t *testing.T) {
	c := NewClient("test", nil, nil)

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, c.TrySend(ServerMessage{Type: MessageTypeHeartbeat}))
	}

	assert.False(t, c.TrySend(ServerMessage{Type: MessageTypeHeartbeat}),
		"a full buffer must not block the broadcaster")
}

func TestHubBroadcastDeliversToMatchingClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	all := NewClient("all", nil, hub)
	only2 := NewClient("only2", nil, hub)
	only2.SetFilter(SubscriptionFilter{Jobs: []string{"job-2"}})

	hub.Register(all)
	hub.Register(only2)

	hub.Broadcast(testEvent("job-1", "progress"))

	select {
	case msg := <-all.send:
		assert.Equal(t, MessageTypeRefreshEvent, msg.Type)
		event, ok := msg.Payload.(refresh.Event)
		require.True(t, ok)
		assert.Equal(t, "job-1", event.JobID)
	case <-time.After(time.Second):
		t.Fatal("unfiltered client never received the event")
	}

	select {
	case msg := <-only2.send:
		t.Fatalf("filtered client received %v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := NewClient("test", nil, hub)
	hub.Register(c)
	hub.Unregister(c)

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-c.send:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond, "unregister must close the send channel")

	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	c := NewClient("test", nil, hub)
	hub.Register(c)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	cancel()

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}
