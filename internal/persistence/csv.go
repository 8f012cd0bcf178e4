// Package persistence is the collaborator that appends engine events to disk in the
// column layout the reference implementation's TradeLogger writes, so existing tooling
// built against those files keeps working unchanged.
package persistence

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	. "github.com/saiputravu/fenrir/internal/common"
	"github.com/saiputravu/fenrir/internal/engine"
)

var ordersHeader = []string{"orderId", "symbol", "type", "price", "quantity", "timestamp"}
var tradesHeader = []string{"tradeId", "buyOrderId", "sellOrderId", "symbol", "price", "quantity", "timestamp"}

// CSVSink is a synchronous EventSink appending to three append-only files: orders,
// trades, and cancelled orders (the last sharing the orders schema). mtx serializes
// writes across all three files, matching the reference implementation's single
// logger-wide mutex rather than one lock per file.
type CSVSink struct {
	mtx sync.Mutex

	ordersFile    *os.File
	tradesFile    *os.File
	cancelledFile *os.File

	orders    *csv.Writer
	trades    *csv.Writer
	cancelled *csv.Writer
}

var _ engine.EventSink = (*CSVSink)(nil)

// Open creates (or appends to) ordersPath, tradesPath, and cancelledPath, writing a
// header row to any file that is newly created or was empty.
func Open(ordersPath, tradesPath, cancelledPath string) (*CSVSink, error) {
	orders, err := openWithHeader(ordersPath, ordersHeader)
	if err != nil {
		return nil, fmt.Errorf("opening orders file: %w", err)
	}
	trades, err := openWithHeader(tradesPath, tradesHeader)
	if err != nil {
		orders.Close()
		return nil, fmt.Errorf("opening trades file: %w", err)
	}
	cancelled, err := openWithHeader(cancelledPath, ordersHeader)
	if err != nil {
		orders.Close()
		trades.Close()
		return nil, fmt.Errorf("opening cancelled file: %w", err)
	}

	return &CSVSink{
		ordersFile:    orders,
		tradesFile:    trades,
		cancelledFile: cancelled,
		orders:        csv.NewWriter(orders),
		trades:        csv.NewWriter(trades),
		cancelled:     csv.NewWriter(cancelled),
	}, nil
}

func openWithHeader(path string, header []string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// Close flushes and closes the underlying files. Safe to call once, after the engine
// that holds this sink has been retired.
func (c *CSVSink) Close() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.orders.Flush()
	c.trades.Flush()
	c.cancelled.Flush()

	var firstErr error
	for _, f := range []*os.File{c.ordersFile, c.tradesFile, c.cancelledFile} {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func orderTypeLabel(side Side) string {
	if side == Buy {
		return "BUY"
	}
	return "SELL"
}

func orderRow(order Order) []string {
	return []string{
		order.OrderID,
		order.Symbol,
		orderTypeLabel(order.Side),
		fmt.Sprintf("%v", order.LimitPrice),
		fmt.Sprintf("%d", order.Quantity),
		fmt.Sprintf("%d", order.Timestamp.UnixMilli()),
	}
}

func (c *CSVSink) writeRow(w *csv.Writer, row []string) {
	if err := w.Write(row); err != nil {
		log.Error().Err(err).Strs("row", row).Msg("unable to write csv row")
		panic(fmt.Errorf("persistence: %w", err))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Error().Err(err).Strs("row", row).Msg("unable to flush csv writer")
		panic(fmt.Errorf("persistence: %w", err))
	}
}

func (c *CSVSink) OrderAccepted(order Order) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.writeRow(c.orders, orderRow(order))
}

func (c *CSVSink) OrderRejected(Order, error) {}

func (c *CSVSink) OrderCancelled(order Order) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.writeRow(c.cancelled, orderRow(order))
}

// OrderAmended logs the amendment as a cancellation of previous followed by an
// acceptance of current, mirroring the cancel-plus-new semantics the policy implements.
func (c *CSVSink) OrderAmended(previous, current Order) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.writeRow(c.cancelled, orderRow(previous))
	c.writeRow(c.orders, orderRow(current))
}

func (c *CSVSink) TradeExecuted(trade Trade) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.writeRow(c.trades, []string{
		fmt.Sprintf("%d", trade.TradeID),
		trade.BuyOrderID,
		trade.SellOrderID,
		trade.Symbol,
		fmt.Sprintf("%v", trade.Price),
		fmt.Sprintf("%d", trade.Quantity),
		fmt.Sprintf("%d", trade.Timestamp.UnixMilli()),
	})
}

// SaveAllOrders overwrites the orders file with exactly the orders given, mirroring
// TradeLogger::saveAllOrders's truncate-and-rewrite semantics for a CLI "export" action.
func (c *CSVSink) SaveAllOrders(orders []Order) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if err := c.ordersFile.Truncate(0); err != nil {
		return fmt.Errorf("truncating orders file: %w", err)
	}
	if _, err := c.ordersFile.Seek(0, 0); err != nil {
		return fmt.Errorf("seeking orders file: %w", err)
	}

	w := csv.NewWriter(c.ordersFile)
	if err := w.Write(ordersHeader); err != nil {
		return fmt.Errorf("writing orders header: %w", err)
	}
	for _, order := range orders {
		if err := w.Write(orderRow(order)); err != nil {
			return fmt.Errorf("writing order row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing orders file: %w", err)
	}
	c.orders = csv.NewWriter(c.ordersFile)
	return nil
}
