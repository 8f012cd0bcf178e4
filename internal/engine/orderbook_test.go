package engine

import (
	"fmt"
	"testing"
	"time"

	. "github.com/saiputravu/fenrir/internal/common"

	"github.com/stretchr/testify/assert"
)

// --- Setup & Helpers --------------------------------------------------------

func createTestOrderBook() (*Engine, *OrderBook) {
	eng := New("X")
	book := eng.bookFor("X")
	return eng, book
}

var testOrderSeq int

func placeTestOrders(eng *Engine, book *OrderBook, price float64, side Side, quantities ...uint64) {
	for _, qty := range quantities {
		testOrderSeq++
		order := Order{
			OrderID:    fmt.Sprintf("test-order-%d", testOrderSeq),
			Symbol:     book.Symbol,
			Side:       side,
			OrderType:  LimitOrder,
			LimitPrice: price,
			Quantity:   qty,
		}
		_, _ = eng.Place(order)
	}
}

type quantity struct {
	quantity      uint64
	totalQuantity uint64
}

func newQuantity(q uint64) quantity { return quantity{q, q} }

func buildExpectedLevel(price float64, side Side, quantities ...quantity) FlatPriceLevel {
	orders := make([]*Order, len(quantities))
	for i, q := range quantities {
		orders[i] = &Order{
			Side:          side,
			OrderType:     LimitOrder,
			LimitPrice:    price,
			Quantity:      q.quantity,
			TotalQuantity: q.totalQuantity,
		}
	}
	return FlatPriceLevel{PriceLevel: price, Orders: orders}
}

// stripForComparison zeroes the fields the fixtures above don't set, so expected and
// actual levels compare equal on the fields that matter to these tests (price, side,
// type, and quantities) without needing to predict order ids/sequences/timestamps.
func stripForComparison(levels []FlatPriceLevel) []FlatPriceLevel {
	out := make([]FlatPriceLevel, len(levels))
	for i, level := range levels {
		orders := make([]*Order, len(level.Orders))
		for j, o := range level.Orders {
			stripped := *o
			stripped.OrderID = ""
			stripped.Symbol = ""
			stripped.ArrivalSequence = 0
			stripped.Timestamp = time.Time{}
			orders[j] = &stripped
		}
		out[i] = FlatPriceLevel{PriceLevel: level.PriceLevel, Orders: orders}
	}
	return out
}

// --- Tests ------------------------------------------------------------------

func TestPlaceOrder_Limit(t *testing.T) {
	eng, book := createTestOrderBook()

	placeTestOrders(eng, book, 99.0, Buy, 100, 90, 80)
	placeTestOrders(eng, book, 100.0, Sell, 100, 90, 80)

	expectedAsks := []FlatPriceLevel{
		buildExpectedLevel(100.0, Sell, newQuantity(100), newQuantity(90), newQuantity(80)),
	}
	expectedBids := []FlatPriceLevel{
		buildExpectedLevel(99.0, Buy, newQuantity(100), newQuantity(90), newQuantity(80)),
	}

	assert.Equal(t, expectedAsks, stripForComparison(FlattenLevels(book.Asks.Items())))
	assert.Equal(t, expectedBids, stripForComparison(FlattenLevels(book.Bids.Items())))
}

func TestPlaceOrder_Limit_MultipleLevels_WithMatch(t *testing.T) {
	eng, book := createTestOrderBook()

	placeTestOrders(eng, book, 99.0, Buy, 100, 90, 80)
	placeTestOrders(eng, book, 98.0, Buy, 50)
	placeTestOrders(eng, book, 100.0, Sell, 100, 90)
	placeTestOrders(eng, book, 101.0, Sell, 20)

	expectedAsks := []FlatPriceLevel{
		buildExpectedLevel(100.0, Sell, newQuantity(100), newQuantity(90)),
		buildExpectedLevel(101.0, Sell, newQuantity(20)),
	}
	expectedBids := []FlatPriceLevel{
		buildExpectedLevel(99.0, Buy, newQuantity(100), newQuantity(90), newQuantity(80)),
		buildExpectedLevel(98.0, Buy, newQuantity(50)),
	}
	assert.Equal(t, expectedAsks, stripForComparison(FlattenLevels(book.Asks.Items())), "asks sorted low -> high")
	assert.Equal(t, expectedBids, stripForComparison(FlattenLevels(book.Bids.Items())), "bids sorted high -> low")

	placeTestOrders(eng, book, 100.0, Buy, 100)
	expectedAsks = []FlatPriceLevel{
		buildExpectedLevel(100.0, Sell, newQuantity(90)),
		buildExpectedLevel(101.0, Sell, newQuantity(20)),
	}
	assert.Equal(t, expectedAsks, stripForComparison(FlattenLevels(book.Asks.Items())))

	placeTestOrders(eng, book, 100.0, Buy, 20)
	expectedAsks = []FlatPriceLevel{
		buildExpectedLevel(100.0, Sell, quantity{70, 90}),
		buildExpectedLevel(101.0, Sell, newQuantity(20)),
	}
	assert.Equal(t, expectedAsks, stripForComparison(FlattenLevels(book.Asks.Items())))
}

func TestPlaceOrder_Limit_MultipleLevels_WithMatchSweep_Bid(t *testing.T) {
	eng, book := createTestOrderBook()

	placeTestOrders(eng, book, 99.0, Buy, 100, 90, 80)
	placeTestOrders(eng, book, 98.0, Buy, 50)
	placeTestOrders(eng, book, 100.0, Sell, 100, 90)
	placeTestOrders(eng, book, 101.0, Sell, 20)

	placeTestOrders(eng, book, 100.0, Buy, 120)
	expectedAsks := []FlatPriceLevel{
		buildExpectedLevel(100.0, Sell, quantity{70, 90}),
		buildExpectedLevel(101.0, Sell, newQuantity(20)),
	}
	assert.Equal(t, expectedAsks, stripForComparison(FlattenLevels(book.Asks.Items())))

	placeTestOrders(eng, book, 103.0, Buy, 80)
	expectedAsks = []FlatPriceLevel{
		buildExpectedLevel(101.0, Sell, quantity{10, 20}),
	}
	assert.Equal(t, expectedAsks, stripForComparison(FlattenLevels(book.Asks.Items())))
}

func TestPlaceOrder_Limit_MultipleLevels_WithMatchSweep_Ask(t *testing.T) {
	eng, book := createTestOrderBook()

	placeTestOrders(eng, book, 99.0, Buy, 100, 90, 80)
	placeTestOrders(eng, book, 98.0, Buy, 50)
	placeTestOrders(eng, book, 100.0, Sell, 100, 90)
	placeTestOrders(eng, book, 101.0, Sell, 20)

	placeTestOrders(eng, book, 96.0, Sell, 310)
	expectedBids := []FlatPriceLevel{
		buildExpectedLevel(98.0, Buy, quantity{10, 50}),
	}
	assert.Equal(t, expectedBids, stripForComparison(FlattenLevels(book.Bids.Items())))
}

func TestReduceHead_RemovesFullyConsumedNodeFromIndex(t *testing.T) {
	eng, book := createTestOrderBook()
	placeTestOrders(eng, book, 50.0, Sell, 10)
	placeTestOrders(eng, book, 50.0, Buy, 10)

	assert.True(t, book.Asks.IsEmpty())
	assert.Len(t, book.index, 0)
}
