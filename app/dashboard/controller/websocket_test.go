package controller

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rogue-datahub/atlasx/pkg/redis"
	"github.com/rogue-datahub/atlasx/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCalculateNextBackoff tests the exponential backoff calculation with jitter
func TestCalculateNextBackoff(t *testing.T) {
	tests := []struct {
		name         string
		current      time.Duration
		max          time.Duration
		factor       float64
		jitterFactor float64
		expectMin    time.Duration
		expectMax    time.Duration
	}{
		{
			name:         "initial backoff doubles",
			current:      1 * time.Second,
			max:          30 * time.Second,
			factor:       2.0,
			jitterFactor: 0.1,
			expectMin:    1800 * time.Millisecond,
			expectMax:    2200 * time.Millisecond,
		},
		{
			name:         "respects maximum",
			current:      20 * time.Second,
			max:          30 * time.Second,
			factor:       2.0,
			jitterFactor: 0.1,
			expectMin:    27 * time.Second,
			expectMax:    30 * time.Second,
		},
		{
			name:         "no jitter produces exact value",
			current:      5 * time.Second,
			max:          30 * time.Second,
			factor:       2.0,
			jitterFactor: 0.0,
			expectMin:    10 * time.Second,
			expectMax:    10 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 10; i++ {
				result := CalculateNextBackoff(tt.current, tt.max, tt.factor, tt.jitterFactor)
				assert.GreaterOrEqual(t, result, tt.expectMin)
				assert.LessOrEqual(t, result, tt.expectMax)
			}
		})
	}
}

func TestClientSubscriptions(t *testing.T) {
	subs := NewClientSubscriptions()
	assert.False(t, subs.IsSubscribed("s1"))

	subs.Subscribe("s1")
	assert.True(t, subs.IsSubscribed("s1"))
	assert.False(t, subs.IsSubscribed("s2"))

	subs.Unsubscribe("s1")
	assert.False(t, subs.IsSubscribed("s1"))
}

func TestHandleClientMessage(t *testing.T) {
	env := newTestEnv(t, nil)
	subs := NewClientSubscriptions()

	replies := env.ctler.handleClientMessage(ClientMessage{Action: "subscribe"}, subs)
	require.Len(t, replies, 1)
	assert.Equal(t, "error", replies[0].Type)

	replies = env.ctler.handleClientMessage(ClientMessage{Action: "dance", Session: "s1"}, subs)
	require.Len(t, replies, 1)
	assert.Equal(t, "error", replies[0].Type)

	// A known session gets its current status right after the confirmation.
	env.app.Votes.Begin(context.Background(), "s1", walletA)
	replies = env.ctler.handleClientMessage(ClientMessage{Action: "subscribe", Session: "s1"}, subs)
	require.Len(t, replies, 2)
	assert.Equal(t, "subscribed", replies[0].Type)
	assert.Equal(t, "votes.updated", replies[1].Type)
	ev := replies[1].Payload.(state.Event)
	assert.True(t, ev.Status.Loading)
	assert.True(t, subs.IsSubscribed("s1"))

	replies = env.ctler.handleClientMessage(ClientMessage{Action: "unsubscribe", Session: "s1"}, subs)
	require.Len(t, replies, 1)
	assert.Equal(t, "unsubscribed", replies[0].Type)
	assert.False(t, subs.IsSubscribed("s1"))
}

func TestRelay(t *testing.T) {
	env := newTestEnv(t, nil)
	subs := NewClientSubscriptions()
	subs.Subscribe("s1")

	payload := `{"session":"s1","domain":"exchanges","event":"exchanges.updated","status":{"requestId":"r1","wallet":"w","loading":false,"updatedAt":"2024-01-01T00:00:00Z"}}`

	out, ok := env.ctler.relay(&goredis.Message{Channel: redis.SessionChannel("s1", "exchanges.updated"), Payload: payload}, subs)
	require.True(t, ok)
	assert.Equal(t, "exchanges.updated", out.Type)
	assert.Equal(t, "r1", out.Payload.(state.Event).Status.RequestID)

	_, ok = env.ctler.relay(&goredis.Message{Channel: redis.SessionChannel("s2", "exchanges.updated"), Payload: payload}, subs)
	assert.False(t, ok, "unsubscribed session")

	_, ok = env.ctler.relay(&goredis.Message{Channel: "market:ticker:price", Payload: payload}, subs)
	assert.False(t, ok, "foreign channel")

	_, ok = env.ctler.relay(&goredis.Message{Channel: redis.SessionChannel("s1", "votes.updated"), Payload: "{"}, subs)
	assert.False(t, ok, "bad payload")
}
