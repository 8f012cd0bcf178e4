package persistence

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/saiputravu/fenrir/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSink(t *testing.T) (*CSVSink, string) {
	dir := t.TempDir()
	sink, err := Open(
		filepath.Join(dir, "orders.csv"),
		filepath.Join(dir, "trades.csv"),
		filepath.Join(dir, "cancelled.csv"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })
	return sink, dir
}

func readCSV(t *testing.T, path string) [][]string {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestOpen_WritesHeadersOnce(t *testing.T) {
	sink, dir := openTestSink(t)

	order := Order{OrderID: "A", Symbol: "AAPL", Side: Buy, LimitPrice: 10, Quantity: 5, Timestamp: time.Now()}
	sink.OrderAccepted(order)
	sink.Close()

	reopened, err := Open(
		filepath.Join(dir, "orders.csv"),
		filepath.Join(dir, "trades.csv"),
		filepath.Join(dir, "cancelled.csv"),
	)
	require.NoError(t, err)
	defer reopened.Close()

	rows := readCSV(t, filepath.Join(dir, "orders.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, ordersHeader, rows[0])
}

func TestOrderAccepted_WritesRow(t *testing.T) {
	sink, dir := openTestSink(t)

	order := Order{OrderID: "A", Symbol: "AAPL", Side: Sell, LimitPrice: 101.5, Quantity: 7, Timestamp: time.Now()}
	sink.OrderAccepted(order)

	rows := readCSV(t, filepath.Join(dir, "orders.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[1][0])
	assert.Equal(t, "AAPL", rows[1][1])
	assert.Equal(t, "SELL", rows[1][2])
	assert.Equal(t, "7", rows[1][4])
}

func TestOrderCancelled_WritesToCancelledFile(t *testing.T) {
	sink, dir := openTestSink(t)

	order := Order{OrderID: "A", Symbol: "AAPL", Side: Buy, LimitPrice: 10, Quantity: 5, Timestamp: time.Now()}
	sink.OrderCancelled(order)

	rows := readCSV(t, filepath.Join(dir, "cancelled.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[1][0])
}

func TestTradeExecuted_WritesRow(t *testing.T) {
	sink, dir := openTestSink(t)

	trade := Trade{TradeID: 1, BuyOrderID: "A", SellOrderID: "B", Symbol: "AAPL", Price: 100, Quantity: 10, Timestamp: time.Now()}
	sink.TradeExecuted(trade)

	rows := readCSV(t, filepath.Join(dir, "trades.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "A", rows[1][1])
	assert.Equal(t, "B", rows[1][2])
}

func TestSaveAllOrders_TruncatesAndRewrites(t *testing.T) {
	sink, dir := openTestSink(t)

	sink.OrderAccepted(Order{OrderID: "stale", Symbol: "AAPL", Side: Buy, LimitPrice: 1, Quantity: 1, Timestamp: time.Now()})

	fresh := []Order{
		{OrderID: "A", Symbol: "AAPL", Side: Buy, LimitPrice: 10, Quantity: 5, Timestamp: time.Now()},
		{OrderID: "B", Symbol: "MSFT", Side: Sell, LimitPrice: 20, Quantity: 3, Timestamp: time.Now()},
	}
	require.NoError(t, sink.SaveAllOrders(fresh))

	rows := readCSV(t, filepath.Join(dir, "orders.csv"))
	require.Len(t, rows, 3)
	assert.Equal(t, ordersHeader, rows[0])
	assert.Equal(t, "A", rows[1][0])
	assert.Equal(t, "B", rows[2][0])
}
