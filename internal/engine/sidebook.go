package engine

import (
	. "github.com/saiputravu/fenrir/internal/common"

	"github.com/tidwall/btree"
)

// priceLevels is the ordered price -> level map backing one side of one symbol's book.
// Bids are ordered highest-first, asks lowest-first; the comparator is the only
// difference between the two sides.
type priceLevels = btree.BTreeG[*PriceLevel]

// SideBook is the price-indexed FIFO structure for one side (bid or ask) of one
// symbol. It iterates in best-first price order; within a level, orders come out in
// arrival order. Empty levels are never retained.
type SideBook struct {
	levels *priceLevels
	isBid  bool
}

func newSideBook(isBid bool) *SideBook {
	var less func(a, b *PriceLevel) bool
	if isBid {
		less = func(a, b *PriceLevel) bool { return a.Price > b.Price } // highest first
	} else {
		less = func(a, b *PriceLevel) bool { return a.Price < b.Price } // lowest first
	}
	return &SideBook{levels: btree.NewBTreeG(less), isBid: isBid}
}

// Insert places order at the tail of the FIFO for its limit price, creating the level
// if absent, and returns the node now owning it.
func (sb *SideBook) Insert(order Order) *orderNode {
	node := &orderNode{order: order}
	if level, ok := sb.levels.GetMut(&PriceLevel{Price: order.LimitPrice}); ok {
		level.pushBack(node)
		return node
	}
	level := &PriceLevel{Price: order.LimitPrice}
	level.pushBack(node)
	sb.levels.Set(level)
	return node
}

// Best returns the order at the head of the best-priced level, without removing it.
func (sb *SideBook) Best() (Order, bool) {
	level, ok := sb.levels.Min()
	if !ok || level.head == nil {
		return Order{}, false
	}
	return level.head.order, true
}

// bestLevel returns the best-priced level for mutation, or nil if the side is empty.
func (sb *SideBook) bestLevel() *PriceLevel {
	level, ok := sb.levels.MinMut()
	if !ok {
		return nil
	}
	return level
}

// dropIfEmpty removes level from the tree if its FIFO has become empty.
func (sb *SideBook) dropIfEmpty(level *PriceLevel) {
	if level.empty() {
		sb.levels.Delete(level)
	}
}

// PopBestHead removes and returns the head order of the best-priced level, deleting
// the level if it becomes empty.
func (sb *SideBook) PopBestHead() (*orderNode, bool) {
	level := sb.bestLevel()
	if level == nil {
		return nil, false
	}
	node := level.popFront()
	sb.dropIfEmpty(level)
	return node, node != nil
}

// ReduceHead subtracts qty from the best level's head order. If the head's remaining
// quantity reaches zero it is removed (and the level dropped if now empty); ReduceHead
// reports whether the head was fully consumed (removed) as a result.
func (sb *SideBook) ReduceHead(qty uint64) (fullyConsumed bool) {
	level := sb.bestLevel()
	if level == nil || level.head == nil {
		return false
	}
	level.head.order.Quantity -= qty
	if level.head.order.Quantity == 0 {
		level.popFront()
		sb.dropIfEmpty(level)
		return true
	}
	return false
}

// RemoveNode splices node out of its level in O(1) and deletes the level from the tree
// (O(log n)) if it is now empty. node must currently belong to this side book.
func (sb *SideBook) RemoveNode(node *orderNode) {
	level := node.level
	level.remove(node)
	sb.dropIfEmpty(level)
}

// Items returns every price level, best-first, as a snapshot slice. Does not mutate.
func (sb *SideBook) Items() []*PriceLevel {
	return sb.levels.Items()
}

func (sb *SideBook) IsEmpty() bool {
	return sb.levels.Len() == 0
}
