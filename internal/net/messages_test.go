package net

import (
	"encoding/binary"
	"math"
	"testing"

	. "github.com/saiputravu/fenrir/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildNewOrderFrame(orderType OrderType, symbol string, price float64, qty uint64, side Side, owner string) []byte {
	buf := make([]byte, BaseMessageHeaderLen+NewOrderMessageHeaderLen+len(owner))
	binary.BigEndian.PutUint16(buf[0:2], uint16(NewOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(orderType))
	copy(buf[4:4+SymbolLen], symbol)
	offset := 4 + SymbolLen
	binary.BigEndian.PutUint64(buf[offset:offset+8], math.Float64bits(price))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:offset+8], qty)
	offset += 8
	buf[offset] = byte(side)
	offset++
	buf[offset] = uint8(len(owner))
	offset++
	copy(buf[offset:], owner)
	return buf
}

func TestParseMessage_NewOrder(t *testing.T) {
	frame := buildNewOrderFrame(LimitOrder, "AAPL", 123.45, 10, Buy, "alice")

	msg, err := parseMessage(frame)
	require.NoError(t, err)

	newOrder, ok := msg.(NewOrderMessage)
	require.True(t, ok)
	assert.Equal(t, LimitOrder, newOrder.OrderType)
	assert.Equal(t, 123.45, newOrder.LimitPrice)
	assert.Equal(t, uint64(10), newOrder.Quantity)
	assert.Equal(t, Buy, newOrder.Side)
	assert.Equal(t, "alice", newOrder.Username)

	order := newOrder.ToOrder("order-1")
	assert.Equal(t, "AAPL", order.Symbol)
	assert.Equal(t, "order-1", order.OrderID)
	assert.Equal(t, "alice", order.Owner)
}

func TestParseMessage_NewOrder_TooShort(t *testing.T) {
	frame := buildNewOrderFrame(LimitOrder, "AAPL", 1, 1, Buy, "bob")
	_, err := parseMessage(frame[:len(frame)-1])
	assert.ErrorIs(t, err, ErrMessageTooShort)
}

func TestParseMessage_CancelOrder(t *testing.T) {
	buf := make([]byte, BaseMessageHeaderLen+CancelOrderMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(CancelOrder))
	copy(buf[2:2+OrderIDLen], "order-42")

	msg, err := parseMessage(buf)
	require.NoError(t, err)

	cancel, ok := msg.(CancelOrderMessage)
	require.True(t, ok)
	assert.Equal(t, "order-42", cancel.OrderID)
}

func TestParseMessage_AmendOrder(t *testing.T) {
	buf := make([]byte, BaseMessageHeaderLen+AmendOrderMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(AmendOrder))
	offset := 2
	copy(buf[offset:offset+OrderIDLen], "order-7")
	offset += OrderIDLen
	binary.BigEndian.PutUint64(buf[offset:offset+8], math.Float64bits(50.0))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:offset+8], 20)

	msg, err := parseMessage(buf)
	require.NoError(t, err)

	amend, ok := msg.(AmendOrderMessage)
	require.True(t, ok)
	assert.Equal(t, "order-7", amend.OrderID)
	assert.Equal(t, 50.0, amend.NewPrice)
	assert.Equal(t, uint64(20), amend.NewQuantity)
}

func TestParseMessage_UnknownType(t *testing.T) {
	buf := make([]byte, BaseMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], 0xFFFF)
	_, err := parseMessage(buf)
	assert.ErrorIs(t, err, ErrInvalidMessageType)
}

func TestReportForTrade_RoundTrip(t *testing.T) {
	trade := Trade{
		TradeID:     1,
		BuyOrderID:  "buyer",
		SellOrderID: "seller",
		Symbol:      "AAPL",
		Price:       100.5,
		Quantity:    5,
	}

	buyerBytes, sellerBytes, err := reportForTrade(trade)
	require.NoError(t, err)
	assert.NotEmpty(t, buyerBytes)
	assert.NotEmpty(t, sellerBytes)

	assert.Equal(t, byte(ExecutionReport), buyerBytes[0])
	assert.Equal(t, byte(Buy), buyerBytes[1])
	assert.Equal(t, byte(Sell), sellerBytes[1])
}

func TestReportForAck_And_ReportForError(t *testing.T) {
	order := Order{OrderID: "order-1", Symbol: "AAPL", Side: Buy, LimitPrice: 10, Quantity: 5}

	ackBytes, err := reportForAck(order)
	require.NoError(t, err)
	assert.Equal(t, byte(AckReport), ackBytes[0])

	errBytes, err := reportForError("order-1", ErrMessageTooShort)
	require.NoError(t, err)
	assert.Equal(t, byte(ErrorReport), errBytes[0])
}
