package ledger

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

// Subscriber is notified after every committed ledger mutation.
//
// Subscribers are kept in a set, so the value must be comparable; pointer
// receivers are the usual choice. OnLedgerChange runs synchronously on the
// mutating goroutine and must not mutate the ledger itself.
type Subscriber interface {
	OnLedgerChange()
}

type funcSubscriber struct {
	fn func()
}

func (f *funcSubscriber) OnLedgerChange() { f.fn() }

// Notifier is the observer registry owned by a Ledger.
type Notifier struct {
	logger *slog.Logger

	mu   sync.Mutex
	subs map[Subscriber]struct{}
}

func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &Notifier{
		logger: logger,
		subs:   make(map[Subscriber]struct{}),
	}
}

// Subscribe registers s and returns a function that removes it again.
// Registering the same subscriber twice keeps a single registration.
// It panics if s is nil or its dynamic type is not comparable.
func (n *Notifier) Subscribe(s Subscriber) (unsubscribe func()) {
	if s == nil {
		panic("ledger: nil subscriber")
	}

	if t := reflect.TypeOf(s); !t.Comparable() {
		panic(fmt.Sprintf("ledger: subscriber of type %s is not comparable, subscribe a pointer instead", t))
	}

	n.mu.Lock()
	n.subs[s] = struct{}{}
	n.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, s)
			n.mu.Unlock()
		})
	}
}

// SubscribeFunc registers fn. Every call creates a distinct registration.
func (n *Notifier) SubscribeFunc(fn func()) (unsubscribe func()) {
	return n.Subscribe(&funcSubscriber{fn: fn})
}

// Len reports the number of registered subscribers.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.subs)
}

// NotifyAll calls every subscriber once. A panicking subscriber is logged and
// skipped; the others still run. It returns the number of failed subscribers.
func (n *Notifier) NotifyAll() int {
	n.mu.Lock()
	subs := make([]Subscriber, 0, len(n.subs))

	for s := range n.subs {
		subs = append(subs, s)
	}
	n.mu.Unlock()

	failed := 0

	for _, s := range subs {
		if err := n.call(s); err != nil {
			n.logger.Error("ledger subscriber failed", "error", err)
			failed++
		}
	}

	return failed
}

func (n *Notifier) call(s Subscriber) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrNotification, r)
		}
	}()

	s.OnLedgerChange()

	return nil
}

func (n *Notifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()

	clear(n.subs)
}
