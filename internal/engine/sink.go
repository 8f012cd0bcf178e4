package engine

import . "github.com/saiputravu/fenrir/internal/common"

// EventSink is the out-of-core collaborator that observes engine lifecycle and trade
// events. Delivery is synchronous and ordered: the sink sees events in the exact order
// the engine's state transitioned, and a Place/Amend/Cancel call does not return to its
// caller until every resulting event has been delivered.
//
// A sink must not retain the Order/Trade values it is handed beyond the call if it
// intends to mutate them; the engine treats them as immutable but does not defensively
// copy on every call.
type EventSink interface {
	OrderAccepted(order Order)
	OrderRejected(order Order, reason error)
	OrderCancelled(order Order)
	OrderAmended(previous, current Order)
	TradeExecuted(trade Trade)
}

// NopSink discards every event. It is the Engine's default reporter, so the engine is
// always safe to drive standalone (e.g. in tests) without installing a real collaborator.
type NopSink struct{}

func (NopSink) OrderAccepted(Order) {}
func (NopSink) OrderRejected(Order, error) {}
func (NopSink) OrderCancelled(Order) {}
func (NopSink) OrderAmended(Order, Order) {}
func (NopSink) TradeExecuted(Trade) {}

var _ EventSink = NopSink{}
