package common

import (
	"fmt"
	"time"
)

// Trade is an append-only, immutable match record. Trades are created only by the
// matching loop and never mutated afterward.
type Trade struct {
	TradeID     uint64
	Sequence    uint64
	BuyOrderID  string
	SellOrderID string
	Symbol      string
	Price       float64
	Quantity    uint64
	Timestamp   time.Time
}

func (t Trade) String() string {
	return fmt.Sprintf(
		`TradeID:     %d
Sequence:    %d
BuyOrderID:  %s
SellOrderID: %s
Symbol:      %s
Price:       %f
Quantity:    %d
Timestamp:   %v`,
		t.TradeID,
		t.Sequence,
		t.BuyOrderID,
		t.SellOrderID,
		t.Symbol,
		t.Price,
		t.Quantity,
		t.Timestamp.Format(time.RFC3339),
	)
}
