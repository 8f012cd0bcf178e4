package common

import (
	"fmt"
	"time"
)

// Order is a limit or market order tracked by the engine. Everything but Quantity is
// immutable-by-contract once the order has been accepted; Quantity decrements as the
// matching loop consumes it.
type Order struct {
	OrderID         string    // Client-supplied, engine-unique identifier
	Symbol          string    // Identifies the book this order belongs to
	AssetType       AssetType // Order metadata only; not sent on the wire and never a book key
	OrderType       OrderType //
	Side            Side      // Buy or Sell
	LimitPrice      float64   // Ignored for MarketOrder
	Quantity        uint64    // Remaining quantity; reaching zero retires the order
	TotalQuantity   uint64    // Quantity requested at acceptance; never decremented
	ArrivalSequence uint64    // Engine-assigned monotonic tie-breaker; the only priority key
	Timestamp       time.Time // Wall-clock arrival time, for logging/export only
	Owner           string    // Opaque client identifier, carried for reporting only
}

func (order Order) String() string {
	return fmt.Sprintf(
		`OrderID:         %s
Symbol:          %s
AssetType:       %v
OrderType:       %v
Side:            %v
LimitPrice:      %f
Quantity:        %d (Total: %d)
ArrivalSequence: %d
Timestamp:       %v
Owner:           %s`,
		order.OrderID,
		order.Symbol,
		order.AssetType,
		order.OrderType,
		order.Side,
		order.LimitPrice,
		order.Quantity,
		order.TotalQuantity,
		order.ArrivalSequence,
		order.Timestamp.Format(time.RFC3339),
		order.Owner,
	)
}
