package engine

import (
	"sync"
	"time"

	. "github.com/saiputravu/fenrir/internal/common"
)

// OrderBook pairs a bid SideBook with an ask SideBook for one symbol, and owns the
// id -> node index used for amend/cancel lookup. The index is a back-reference only;
// it never owns the order, and it is always kept in lockstep with the two SideBooks.
// mu guards every field below and is held for the full duration of a matching loop, so
// a half-matched aggressor is never visible to another caller of this book.
type OrderBook struct {
	Symbol string
	Bids   *SideBook
	Asks   *SideBook

	mu sync.Mutex

	engine *Engine
	index  map[string]*orderNode
}

func newOrderBook(eng *Engine, symbol string) *OrderBook {
	return &OrderBook{
		Symbol: symbol,
		Bids:   newSideBook(true),
		Asks:   newSideBook(false),
		engine: eng,
		index:  make(map[string]*orderNode),
	}
}

// addOrder runs the matching loop with order as the aggressor, then rests whatever
// quantity remains (limit orders only; a market order's remainder is discarded). The
// caller (Engine.Place) is responsible for sequence assignment, the global duplicate
// check, and holding this book's lock for the duration of the call.
func (b *OrderBook) addOrder(order Order) []Trade {
	trades := b.match(&order)

	if order.Quantity > 0 && order.OrderType == LimitOrder {
		var node *orderNode
		if order.Side == Buy {
			node = b.Bids.Insert(order)
		} else {
			node = b.Asks.Insert(order)
		}
		b.index[order.OrderID] = node
		b.engine.registerOrder(order.OrderID, b.Symbol)
	}

	return trades
}

// match consumes the opposing side while it crosses with the aggressor, mutating
// order.Quantity in place and emitting a Trade per fill. Fully-filled resting orders
// are removed from this book's index and from the engine's reverse index.
func (b *OrderBook) match(order *Order) []Trade {
	opposing := b.Asks
	if order.Side == Sell {
		opposing = b.Bids
	}

	var trades []Trade
	now := time.Now()
	for order.Quantity > 0 {
		resting, ok := opposing.Best()
		if !ok || !compatible(*order, resting) {
			break
		}

		qty := min(order.Quantity, resting.Quantity)
		price := resting.LimitPrice

		buyOrderID, sellOrderID := order.OrderID, resting.OrderID
		if order.Side == Sell {
			buyOrderID, sellOrderID = resting.OrderID, order.OrderID
		}

		tradeID, sequence := b.engine.mintTrade()
		trade := Trade{
			TradeID:     tradeID,
			Sequence:    sequence,
			BuyOrderID:  buyOrderID,
			SellOrderID: sellOrderID,
			Symbol:      b.Symbol,
			Price:       price,
			Quantity:    qty,
			Timestamp:   now,
		}
		trades = append(trades, trade)

		order.Quantity -= qty
		if opposing.ReduceHead(qty) {
			delete(b.index, resting.OrderID)
			b.engine.unregisterOrder(resting.OrderID)
		}
	}
	return trades
}

// compatible reports whether resting can be matched against aggressor: resting's price
// must be at or better than aggressor's limit, and an aggressor with no limit (a market
// order) is compatible with anything.
func compatible(aggressor, resting Order) bool {
	if aggressor.OrderType == MarketOrder {
		return true
	}
	if aggressor.Side == Buy {
		return resting.LimitPrice <= aggressor.LimitPrice
	}
	return resting.LimitPrice >= aggressor.LimitPrice
}

// cancelOrder removes orderID from whichever side it rests on and from this book's
// index. The caller must already know orderID belongs to this book and hold its lock.
func (b *OrderBook) cancelOrder(orderID string) (Order, bool) {
	node, ok := b.index[orderID]
	if !ok {
		return Order{}, false
	}
	order := node.order
	b.removeNode(node)
	delete(b.index, orderID)
	return order, true
}

func (b *OrderBook) removeNode(node *orderNode) {
	if node.order.Side == Buy {
		b.Bids.RemoveNode(node)
	} else {
		b.Asks.RemoveNode(node)
	}
}

// amendOrder implements the unconditional cancel-plus-new policy: the existing resting
// order is removed, a fresh ArrivalSequence is minted, and the replacement is run back
// through addOrder so it may immediately cross.
func (b *OrderBook) amendOrder(orderID string, newPrice float64, newQuantity uint64) (previous, current Order, trades []Trade, ok bool) {
	node, found := b.index[orderID]
	if !found {
		return Order{}, Order{}, nil, false
	}
	previous = node.order
	b.removeNode(node)
	delete(b.index, orderID)
	b.engine.unregisterOrder(orderID)

	current = previous
	current.LimitPrice = newPrice
	current.Quantity = newQuantity
	current.TotalQuantity = newQuantity
	current.ArrivalSequence = b.engine.mintSequence()
	current.Timestamp = time.Now()

	trades = b.addOrder(current)
	return previous, current, trades, true
}

// allOrders returns every order currently resting in this book, in unspecified order.
func (b *OrderBook) allOrders() []Order {
	orders := make([]Order, 0, len(b.index))
	for _, node := range b.index {
		orders = append(orders, node.order)
	}
	return orders
}

// BookSnapshot is a stable, point-in-time view of both sides of one symbol's book.
type BookSnapshot struct {
	Symbol string
	Bids   []FlatPriceLevel
	Asks   []FlatPriceLevel
}

func (b *OrderBook) snapshot() BookSnapshot {
	return BookSnapshot{
		Symbol: b.Symbol,
		Bids:   FlattenLevels(b.Bids.Items()),
		Asks:   FlattenLevels(b.Asks.Items()),
	}
}
