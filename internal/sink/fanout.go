// Package sink composes EventSink collaborators so the engine can be wired to
// persistence, notification, and remote reporting without knowing any of them exist.
package sink

import (
	"fmt"
	"strings"

	. "github.com/saiputravu/fenrir/internal/common"
	"github.com/saiputravu/fenrir/internal/engine"
)

// FanOut forwards every event to a fixed ordered list of inner sinks. A panicking inner
// sink does not stop delivery to the rest; FanOut recovers each panic and, once every
// sink has been called, panics once with all of them joined in a multiError, which the
// engine then reports to its caller as a single ErrSinkFailure.
type FanOut struct {
	sinks []engine.EventSink
}

// New builds a FanOut over sinks, in the order events will be delivered.
func New(sinks ...engine.EventSink) *FanOut {
	return &FanOut{sinks: sinks}
}

var _ engine.EventSink = (*FanOut)(nil)

// dispatch runs call against every inner sink, recovering each one's panic in
// isolation so a faulting sink never prevents the rest from observing the event.
func (f *FanOut) dispatch(call func(engine.EventSink)) {
	var failures multiError
	for _, s := range f.sinks {
		func(s engine.EventSink) {
			defer func() {
				if r := recover(); r != nil {
					failures.add(fmt.Sprintf("%v", r))
				}
			}()
			call(s)
		}(s)
	}
	if len(failures.messages) > 0 {
		panic(&failures)
	}
}

func (f *FanOut) OrderAccepted(order Order) {
	f.dispatch(func(s engine.EventSink) { s.OrderAccepted(order) })
}

func (f *FanOut) OrderRejected(order Order, reason error) {
	f.dispatch(func(s engine.EventSink) { s.OrderRejected(order, reason) })
}

func (f *FanOut) OrderCancelled(order Order) {
	f.dispatch(func(s engine.EventSink) { s.OrderCancelled(order) })
}

func (f *FanOut) OrderAmended(previous, current Order) {
	f.dispatch(func(s engine.EventSink) { s.OrderAmended(previous, current) })
}

func (f *FanOut) TradeExecuted(trade Trade) {
	f.dispatch(func(s engine.EventSink) { s.TradeExecuted(trade) })
}

// multiError joins the per-sink panics a FanOut member raises, so a single delivery
// pass can report all of them instead of only the first the engine's recover catches.
type multiError struct{ messages []string }

func (m *multiError) add(msg string) { m.messages = append(m.messages, msg) }

func (m *multiError) Error() string {
	return fmt.Sprintf("fan-out sink: %s", strings.Join(m.messages, "; "))
}
