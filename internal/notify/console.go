// Package notify is the collaborator that prints colorized, human-readable lines for
// lifecycle and trade events, the Go-idiomatic equivalent of the reference
// implementation's EmailNotifier mock (which never sent real email either).
package notify

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	. "github.com/saiputravu/fenrir/internal/common"
	"github.com/saiputravu/fenrir/internal/engine"
)

// ConsoleSink writes one colorized zerolog event per lifecycle/trade notification. It
// uses zerolog's ConsoleWriter for colorization rather than hand-rolled ANSI escapes.
type ConsoleSink struct {
	log zerolog.Logger
}

var _ engine.EventSink = ConsoleSink{}

// New builds a ConsoleSink writing to w, colorized (NoColor is left false).
func New(w io.Writer) ConsoleSink {
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	return ConsoleSink{log: zerolog.New(console).With().Timestamp().Logger()}
}

// NewStdout is the common case: a ConsoleSink writing to os.Stdout.
func NewStdout() ConsoleSink {
	return New(os.Stdout)
}

func (c ConsoleSink) OrderAccepted(order Order) {
	c.log.Info().
		Str("event", "order placed").
		Str("order_id", order.OrderID).
		Str("symbol", order.Symbol).
		Str("side", order.Side.String()).
		Float64("price", order.LimitPrice).
		Uint64("quantity", order.Quantity).
		Msg(fmt.Sprintf("order placed: %s", order))
}

func (c ConsoleSink) OrderRejected(order Order, reason error) {
	c.log.Warn().
		Str("event", "order rejected").
		Str("order_id", order.OrderID).
		Err(reason).
		Msg("order rejected")
}

func (c ConsoleSink) OrderCancelled(order Order) {
	c.log.Info().
		Str("event", "order cancelled").
		Str("order_id", order.OrderID).
		Str("symbol", order.Symbol).
		Msg(fmt.Sprintf("order cancelled: %s", order))
}

func (c ConsoleSink) OrderAmended(previous, current Order) {
	c.log.Info().
		Str("event", "order amended").
		Str("order_id", current.OrderID).
		Float64("previous_price", previous.LimitPrice).
		Float64("new_price", current.LimitPrice).
		Uint64("previous_quantity", previous.Quantity).
		Uint64("new_quantity", current.Quantity).
		Msg(fmt.Sprintf("order amended: %s", current))
}

func (c ConsoleSink) TradeExecuted(trade Trade) {
	c.log.Info().
		Str("event", "trade executed").
		Uint64("trade_id", trade.TradeID).
		Str("symbol", trade.Symbol).
		Float64("price", trade.Price).
		Uint64("quantity", trade.Quantity).
		Msg(fmt.Sprintf("trade matched: %s", trade))
}
