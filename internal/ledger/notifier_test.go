package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/taxdesk/internal/ledger"
)

type countingSubscriber struct {
	calls int
}

func (c *countingSubscriber) OnLedgerChange() { c.calls++ }

func addOne(t *testing.T, l *ledger.Ledger) {
	t.Helper()

	_, err := l.AddRevenue(ledger.RevenueParams{Amount: decimal.NewFromInt(100), Date: testDate})
	require.NoError(t, err)
}

func TestNotifier_FanOut(t *testing.T) {
	l := newLedger(t)

	subs := make([]*countingSubscriber, 5)
	for i := range subs {
		subs[i] = &countingSubscriber{}
		l.Subscribe(subs[i])
	}

	addOne(t, l)

	for i, s := range subs {
		assert.Equal(t, 1, s.calls, "subscriber %d", i)
	}
}

func TestNotifier_UnsubscribeBeforeMutation(t *testing.T) {
	l := newLedger(t)

	kept := &countingSubscriber{}
	dropped := &countingSubscriber{}

	l.Subscribe(kept)
	unsubscribe := l.Subscribe(dropped)
	unsubscribe()
	unsubscribe()

	addOne(t, l)

	assert.Equal(t, 1, kept.calls)
	assert.Zero(t, dropped.calls)
}

func TestNotifier_SameSubscriberRegisteredOnce(t *testing.T) {
	n := ledger.NewNotifier(quietLogger())
	s := &countingSubscriber{}

	n.Subscribe(s)
	n.Subscribe(s)
	assert.Equal(t, 1, n.Len())

	assert.Zero(t, n.NotifyAll())
	assert.Equal(t, 1, s.calls)
}

func TestNotifier_PanickingSubscriberDoesNotStopOthers(t *testing.T) {
	l := newLedger(t)

	before := &countingSubscriber{}
	after := &countingSubscriber{}

	l.Subscribe(before)
	l.SubscribeFunc(func() { panic("boom") })
	l.Subscribe(after)

	addOne(t, l)

	assert.Equal(t, 1, before.calls)
	assert.Equal(t, 1, after.calls)
	assert.Len(t, l.Revenues(), 1, "the triggering mutation must stand")
}

func TestNotifier_NotifyAllReportsFailures(t *testing.T) {
	n := ledger.NewNotifier(quietLogger())

	n.SubscribeFunc(func() { panic("first") })
	n.SubscribeFunc(func() { panic("second") })
	n.SubscribeFunc(func() {})

	assert.Equal(t, 2, n.NotifyAll())
}

func TestNotifier_SubscriberSeesTriggeringMutation(t *testing.T) {
	l := newLedger(t)

	var observed []uint64

	var counts []int

	l.SubscribeFunc(func() {
		snap := l.Snapshot()
		observed = append(observed, snap.Revision)
		counts = append(counts, len(snap.Revenues))
	})

	addOne(t, l)
	addOne(t, l)

	assert.Equal(t, []uint64{1, 2}, observed)
	assert.Equal(t, []int{1, 2}, counts)
}

type sliceSubscriber struct {
	seen []int
}

func (s sliceSubscriber) OnLedgerChange() {}

func TestNotifier_RejectsNonComparableSubscriber(t *testing.T) {
	l := newLedger(t)

	assert.PanicsWithValue(t,
		"ledger: subscriber of type ledger_test.sliceSubscriber is not comparable, subscribe a pointer instead",
		func() { l.Subscribe(sliceSubscriber{}) },
	)
	assert.Panics(t, func() { l.Subscribe(nil) })

	sub := &countingSubscriber{}
	l.Subscribe(sub)
	addOne(t, l)
	assert.Equal(t, 1, sub.calls)
}
