package engine

import (
	"fmt"
	"math"
	"sync"
	"time"

	. "github.com/saiputravu/fenrir/internal/common"
)

// validPrice reports whether price is usable as a resting limit price: positive and
// finite. NaN fails price > 0 on its own; +Inf does not, so it needs its own check.
func validPrice(price float64) bool {
	return price > 0 && !math.IsInf(price, 0)
}

// Engine is the directory of symbol -> OrderBook. It routes requests to the correct
// book, mints engine-unique trade ids and sequence numbers, and guarantees that an
// order_id is unique across every book it manages. All public operations behave as if
// serialized by a single lock (mu, the "directory lock"); the actual matching work for
// a given symbol runs under that OrderBook's own lock, so two callers touching
// different symbols may proceed concurrently.
type Engine struct {
	mu       sync.RWMutex
	books    map[string]*OrderBook
	symbolOf map[string]string // order_id -> symbol, for O(1) amend/cancel routing

	nextSequence uint64
	nextTradeID  uint64

	reporter EventSink
}

// New constructs an Engine. Any symbols passed are pre-created; this is purely a
// convenience (every other symbol is created lazily on first reference) and mirrors
// how callers that know their universe up front like to initialize it.
func New(symbols ...string) *Engine {
	e := &Engine{
		books:    make(map[string]*OrderBook),
		symbolOf: make(map[string]string),
		reporter: NopSink{},
	}
	for _, symbol := range symbols {
		e.books[symbol] = newOrderBook(e, symbol)
	}
	return e
}

// SetReporter installs the event sink consumed by every subsequent operation.
func (e *Engine) SetReporter(sink EventSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sink == nil {
		sink = NopSink{}
	}
	e.reporter = sink
}

func (e *Engine) mintSequence() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	seq := e.nextSequence
	e.nextSequence++
	return seq
}

func (e *Engine) mintTrade() (tradeID, sequence uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tradeID = e.nextTradeID
	e.nextTradeID++
	sequence = e.nextSequence
	e.nextSequence++
	return tradeID, sequence
}

func (e *Engine) registerOrder(orderID, symbol string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.symbolOf[orderID] = symbol
}

func (e *Engine) unregisterOrder(orderID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.symbolOf, orderID)
}

// isLive reports whether orderID currently names a resting order anywhere in the
// engine.
func (e *Engine) isLive(orderID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.symbolOf[orderID]
	return ok
}

// bookFor returns the symbol's book, creating it on first reference.
func (e *Engine) bookFor(symbol string) *OrderBook {
	e.mu.RLock()
	book, ok := e.books[symbol]
	e.mu.RUnlock()
	if ok {
		return book
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if book, ok = e.books[symbol]; ok {
		return book
	}
	book = newOrderBook(e, symbol)
	e.books[symbol] = book
	return book
}

// bookOf returns the book currently holding orderID, or nil if unknown.
func (e *Engine) bookOf(orderID string) *OrderBook {
	e.mu.RLock()
	defer e.mu.RUnlock()
	symbol, ok := e.symbolOf[orderID]
	if !ok {
		return nil
	}
	return e.books[symbol]
}

func (e *Engine) snapshotReporter() EventSink {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reporter
}

// deliver invokes fn against the installed sink, recovering a panic and reporting it
// as ErrSinkFailure. The engine's own state has already been
// mutated by the time deliver runs, so a faulting sink never corrupts it.
func deliver(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSinkFailure, r)
		}
	}()
	fn()
	return nil
}

// firstErr keeps the first non-nil error handed to it and discards the rest, so a
// cascade of several sink calls reports one SinkFailure to the caller without masking
// later calls from happening.
type firstErr struct{ err error }

func (f *firstErr) record(err error) {
	if err != nil && f.err == nil {
		f.err = err
	}
}

// Place validates, sequences, and routes order to its symbol's book, running the
// matching loop and returning every trade it produced. Rejections (duplicate id,
// invalid price/quantity) leave all state untouched.
func (e *Engine) Place(order Order) ([]Trade, error) {
	reporter := e.snapshotReporter()

	if order.Quantity == 0 {
		_ = deliver(func() { reporter.OrderRejected(order, ErrInvalidQuantity) })
		return nil, ErrInvalidQuantity
	}
	if order.OrderType == LimitOrder && !validPrice(order.LimitPrice) {
		_ = deliver(func() { reporter.OrderRejected(order, ErrInvalidPrice) })
		return nil, ErrInvalidPrice
	}
	if e.isLive(order.OrderID) {
		_ = deliver(func() { reporter.OrderRejected(order, ErrDuplicateOrderID) })
		return nil, ErrDuplicateOrderID
	}

	book := e.bookFor(order.Symbol)

	book.mu.Lock()
	order.ArrivalSequence = e.mintSequence()
	order.TotalQuantity = order.Quantity
	order.Timestamp = time.Now()

	// Re-check under the book lock: another caller may have placed the same id on
	// this exact book between isLive's read and acquiring the lock.
	if _, exists := book.index[order.OrderID]; exists {
		book.mu.Unlock()
		_ = deliver(func() { reporter.OrderRejected(order, ErrDuplicateOrderID) })
		return nil, ErrDuplicateOrderID
	}

	trades := book.addOrder(order)
	book.mu.Unlock()

	var errs firstErr
	errs.record(deliver(func() { reporter.OrderAccepted(order) }))
	for _, trade := range trades {
		errs.record(deliver(func() { reporter.TradeExecuted(trade) }))
	}
	return trades, errs.err
}

// Amend treats the request as cancel-plus-new: the resting order's queue position is
// always forfeited and it receives a fresh arrival sequence, per the documented policy.
func (e *Engine) Amend(orderID string, newPrice float64, newQuantity uint64) ([]Trade, error) {
	reporter := e.snapshotReporter()

	if newQuantity == 0 {
		return nil, ErrInvalidQuantity
	}
	if !validPrice(newPrice) {
		return nil, ErrInvalidPrice
	}

	book := e.bookOf(orderID)
	if book == nil {
		return nil, ErrUnknownOrder
	}

	book.mu.Lock()
	previous, current, trades, ok := book.amendOrder(orderID, newPrice, newQuantity)
	book.mu.Unlock()
	if !ok {
		return nil, ErrUnknownOrder
	}

	var errs firstErr
	errs.record(deliver(func() { reporter.OrderAmended(previous, current) }))
	for _, trade := range trades {
		errs.record(deliver(func() { reporter.TradeExecuted(trade) }))
	}
	return trades, errs.err
}

// Cancel removes orderID from its book and from the reverse index. It is idempotent:
// cancelling twice returns (true, nil) then (false, ErrUnknownOrder).
func (e *Engine) Cancel(orderID string) (bool, error) {
	reporter := e.snapshotReporter()

	book := e.bookOf(orderID)
	if book == nil {
		return false, ErrUnknownOrder
	}

	book.mu.Lock()
	order, ok := book.cancelOrder(orderID)
	book.mu.Unlock()
	if !ok {
		return false, ErrUnknownOrder
	}
	e.unregisterOrder(orderID)

	if err := deliver(func() { reporter.OrderCancelled(order) }); err != nil {
		return true, err
	}
	return true, nil
}

// Snapshot returns a stable view of symbol's book. It never creates a book as a side
// effect of reading; a symbol that has never been referenced reports ErrUnknownSymbol.
func (e *Engine) Snapshot(symbol string) (BookSnapshot, error) {
	e.mu.RLock()
	book, ok := e.books[symbol]
	e.mu.RUnlock()
	if !ok {
		return BookSnapshot{}, ErrUnknownSymbol
	}

	book.mu.Lock()
	defer book.mu.Unlock()
	return book.snapshot(), nil
}

// AllOrders returns every order currently resting across every symbol, in unspecified
// order, for export/CLI collaborators.
func (e *Engine) AllOrders() []Order {
	e.mu.RLock()
	books := make([]*OrderBook, 0, len(e.books))
	for _, book := range e.books {
		books = append(books, book)
	}
	e.mu.RUnlock()

	var all []Order
	for _, book := range books {
		book.mu.Lock()
		all = append(all, book.allOrders()...)
		book.mu.Unlock()
	}
	return all
}
