package engine

import . "github.com/saiputravu/fenrir/internal/common"

// PriceLevel holds every order resting at one price, in arrival order. It is never
// retained once empty — existence of a level implies at least one live order.
type PriceLevel struct {
	Price float64
	head  *orderNode
	tail  *orderNode
	count int
}

// FlatPriceLevel is a point-in-time, non-mutating snapshot of one PriceLevel, best-first
// within the level (i.e. head-first). Used for rendering and export; it is named to match
// the shape consumers (CLI "view book", persistence export) expect.
type FlatPriceLevel struct {
	PriceLevel float64
	Orders     []*Order
}

// Flatten walks the level's FIFO without mutating it and returns a snapshot.
func (l *PriceLevel) Flatten() FlatPriceLevel {
	orders := make([]*Order, 0, l.count)
	for node := l.head; node != nil; node = node.next {
		o := node.order
		orders = append(orders, &o)
	}
	return FlatPriceLevel{PriceLevel: l.Price, Orders: orders}
}

// FlattenLevels flattens a best-to-worst ordered slice of levels (as returned by a
// SideBook's ordered iteration) into their snapshot form.
func FlattenLevels(levels []*PriceLevel) []FlatPriceLevel {
	flat := make([]FlatPriceLevel, 0, len(levels))
	for _, level := range levels {
		flat = append(flat, level.Flatten())
	}
	return flat
}
