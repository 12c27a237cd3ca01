package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer_RequiresBrokers(t *testing.T) {
	p, err := NewProducer(nil)
	require.Error(t, err)
	assert.Nil(t, p)
}

func TestNewProducer_DoesNotDial(t *testing.T) {
	p, err := NewProducer([]string{"127.0.0.1:1"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestRecorder(t *testing.T) {
	var r Recorder
	ctx := context.Background()

	require.NoError(t, r.PublishEvent(ctx, TopicOrders, "o1", New("order_created", map[string]any{"id": "o1"})))
	require.NoError(t, r.PublishEvent(ctx, TopicCart, "u1", New("cart_cleared", nil)))

	assert.Equal(t, []string{"order_created"}, r.Types(TopicOrders))
	assert.Equal(t, "o1", r.Events()[0].Key)
	assert.False(t, r.Events()[0].Event.OccurredAt.IsZero())
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.PublishEvent(context.Background(), TopicOrders, "k", New("x", nil)))
	assert.NoError(t, p.Close())
}
