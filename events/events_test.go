package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	got      []OrderEvent
	err      error
	closed   bool
	closeErr error
}

func (f *fakePublisher) Publish(_ context.Context, ev OrderEvent) error {
	f.got = append(f.got, ev)
	return f.err
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return f.closeErr
}

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	ok := &fakePublisher{}
	broken := &fakePublisher{err: errors.New("broker unreachable"), closeErr: errors.New("close failed")}
	m := Multi{broken, ok}

	ev := NewOrderEvent(OrderPaid, 12)
	err := m.Publish(context.Background(), ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unreachable")
	require.Len(t, ok.got, 1, "one failing sink does not starve the others")
	assert.Equal(t, ev.EventID, ok.got[0].EventID)

	assert.ErrorContains(t, m.Close(), "close failed")
	assert.True(t, ok.closed)
	assert.True(t, broken.closed)
}

func TestNewOrderEvent(t *testing.T) {
	a := NewOrderEvent(OrderCreated, 1)
	b := NewOrderEvent(OrderCreated, 1)
	assert.NotEqual(t, a.EventID, b.EventID)
	assert.Equal(t, OrderCreated, a.Type)
	assert.EqualValues(t, 1, a.OrderID)
	assert.False(t, a.Timestamp.IsZero())
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), OrderEvent{}))
	assert.NoError(t, p.Close())
}
