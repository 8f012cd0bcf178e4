package engine

import . "github.com/saiputravu/fenrir/internal/common"

// orderNode is an intrusive doubly-linked-list element. Every resting order is wrapped
// in exactly one node, owned by exactly one level's FIFO; the order_id -> *orderNode
// index lets amend/cancel splice a node out in O(1) without walking the level.
type orderNode struct {
	order Order
	level *PriceLevel
	prev  *orderNode
	next  *orderNode
}

// pushBack appends node to the tail of the level's FIFO.
func (l *PriceLevel) pushBack(node *orderNode) {
	node.level = l
	node.prev = l.tail
	node.next = nil
	if l.tail != nil {
		l.tail.next = node
	} else {
		l.head = node
	}
	l.tail = node
	l.count++
}

// popFront removes and returns the head node, or nil if the level is empty.
func (l *PriceLevel) popFront() *orderNode {
	node := l.head
	if node == nil {
		return nil
	}
	l.remove(node)
	return node
}

// remove splices node out of the level's FIFO in O(1). node must belong to l.
func (l *PriceLevel) remove(node *orderNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	node.prev, node.next, node.level = nil, nil, nil
	l.count--
}

func (l *PriceLevel) empty() bool { return l.count == 0 }
