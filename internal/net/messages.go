package net

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	. "github.com/saiputravu/fenrir/internal/common"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short for its declared fields")
)

type MessageType int

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	AmendOrder
	LogBook
)

type ReportMessageType int

const (
	ExecutionReport ReportMessageType = iota
	ErrorReport
	AckReport
)

type Message interface {
	GetType() MessageType
}

// Message format constants. OrderIDLen truncates/pads order ids to a fixed 16-byte
// field on the wire; callers that mint uuid.New().String() ids longer than 16 bytes
// lose the tail, a framing limitation inherited from the reference binary protocol
// rather than something this transport tries to fix.
const (
	BaseMessageHeaderLen        = 2
	SymbolLen                   = 4
	OrderIDLen                  = 16
	NewOrderMessageHeaderLen    = 2 + SymbolLen + 8 + 8 + 1 + 1
	CancelOrderMessageHeaderLen = OrderIDLen
	AmendOrderMessageHeaderLen  = OrderIDLen + 8 + 8
)

type BaseMessage struct {
	TypeOf MessageType // 2 bytes
}

func (m BaseMessage) GetType() MessageType { return m.TypeOf }

func parseMessage(msg []byte) (Message, error) {
	if len(msg) < BaseMessageHeaderLen {
		return nil, ErrMessageTooShort
	}

	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	body := msg[2:]
	switch typeOf {
	case NewOrder:
		return parseNewOrder(body)
	case CancelOrder:
		return parseCancelOrder(body)
	case AmendOrder:
		return parseAmendOrder(body)
	case LogBook:
		return BaseMessage{TypeOf: LogBook}, nil
	case Heartbeat:
		return BaseMessage{TypeOf: Heartbeat}, nil
	default:
		return nil, ErrInvalidMessageType
	}
}

// NewOrderMessage carries everything needed to mint a common.Order except the
// order_id, which the server mints itself on receipt (see Server.dispatch).
type NewOrderMessage struct {
	BaseMessage
	OrderType   OrderType // 2 bytes
	Symbol      string    // 4 bytes, NUL-padded
	LimitPrice  float64   // 8 bytes
	Quantity    uint64    // 8 bytes
	Side        Side      // 1 byte
	UsernameLen uint8     // 1 byte
	Username    string    // n bytes
}

func padSymbol(symbol string) string {
	if len(symbol) >= SymbolLen {
		return symbol[:SymbolLen]
	}
	return symbol + string(make([]byte, SymbolLen-len(symbol)))
}

func (m *NewOrderMessage) ToOrder(orderID string) Order {
	return Order{
		OrderID:    orderID,
		Symbol:     trimPadding(m.Symbol),
		OrderType:  m.OrderType,
		LimitPrice: m.LimitPrice,
		Quantity:   m.Quantity,
		Side:       m.Side,
		Owner:      m.Username,
	}
}

func trimPadding(s string) string {
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return s
}

func parseNewOrder(msg []byte) (NewOrderMessage, error) {
	if len(msg) < NewOrderMessageHeaderLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}

	m := NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}
	m.OrderType = OrderType(binary.BigEndian.Uint16(msg[0:2]))
	m.Symbol = string(msg[2 : 2+SymbolLen])
	offset := 2 + SymbolLen
	m.LimitPrice = math.Float64frombits(binary.BigEndian.Uint64(msg[offset : offset+8]))
	offset += 8
	m.Quantity = binary.BigEndian.Uint64(msg[offset : offset+8])
	offset += 8
	m.Side = Side(msg[offset])
	offset++
	m.UsernameLen = uint8(msg[offset])
	offset++

	if len(msg) < offset+int(m.UsernameLen) {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	m.Username = string(msg[offset : offset+int(m.UsernameLen)])
	return m, nil
}

type CancelOrderMessage struct {
	BaseMessage
	OrderID string // 16 bytes
}

func parseCancelOrder(msg []byte) (CancelOrderMessage, error) {
	if len(msg) < CancelOrderMessageHeaderLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	return CancelOrderMessage{
		BaseMessage: BaseMessage{TypeOf: CancelOrder},
		OrderID:     trimPadding(string(msg[0:OrderIDLen])),
	}, nil
}

type AmendOrderMessage struct {
	BaseMessage
	OrderID     string  // 16 bytes
	NewPrice    float64 // 8 bytes
	NewQuantity uint64  // 8 bytes
}

func parseAmendOrder(msg []byte) (AmendOrderMessage, error) {
	if len(msg) < AmendOrderMessageHeaderLen {
		return AmendOrderMessage{}, ErrMessageTooShort
	}
	return AmendOrderMessage{
		BaseMessage: BaseMessage{TypeOf: AmendOrder},
		OrderID:     trimPadding(string(msg[0:OrderIDLen])),
		NewPrice:    math.Float64frombits(binary.BigEndian.Uint64(msg[OrderIDLen : OrderIDLen+8])),
		NewQuantity: binary.BigEndian.Uint64(msg[OrderIDLen+8 : OrderIDLen+16]),
	}, nil
}

// Report is the outbound wire record: an ack, an execution, or an error, addressed
// back to whichever order_id it concerns.
type Report struct {
	MessageType     ReportMessageType // 1 byte
	Side            Side              // 1 byte
	Timestamp       uint64            // 8 bytes
	Quantity        uint64            // 8 bytes
	Price           float64           // 8 bytes
	CounterpartyLen uint16            // 2 bytes
	ErrStrLen       uint32            // 4 bytes
	Symbol          string            // 4 bytes
	OrderID         string            // 16 bytes
	Err             string            // n bytes
	Counterparty    string            // n bytes (the opposing order's id, for executions)
}

const reportFixedHeaderLen = 1 + 1 + 8 + 8 + 8 + 2 + 4 + SymbolLen + OrderIDLen

// Serialize converts the report to its wire form.
func (r *Report) Serialize() ([]byte, error) {
	totalSize := reportFixedHeaderLen + len(r.Err) + len(r.Counterparty)

	buf := make([]byte, totalSize)
	buf[0] = byte(r.MessageType)
	buf[1] = byte(r.Side)
	binary.BigEndian.PutUint64(buf[2:10], r.Timestamp)
	binary.BigEndian.PutUint64(buf[10:18], r.Quantity)
	binary.BigEndian.PutUint64(buf[18:26], math.Float64bits(r.Price))
	binary.BigEndian.PutUint16(buf[26:28], r.CounterpartyLen)
	binary.BigEndian.PutUint32(buf[28:32], r.ErrStrLen)

	copy(buf[32:32+SymbolLen], padSymbol(r.Symbol))
	copy(buf[32+SymbolLen:32+SymbolLen+OrderIDLen], r.OrderID)

	offset := reportFixedHeaderLen
	copy(buf[offset:], r.Err)
	offset += int(r.ErrStrLen)
	copy(buf[offset:], r.Counterparty)
	return buf, nil
}

// reportForTrade builds the two execution reports a trade produces, one addressed to
// each side of the fill.
func reportForTrade(trade Trade) (buyerReport, sellerReport []byte, err error) {
	base := Report{
		MessageType: ExecutionReport,
		Timestamp:   uint64(trade.Timestamp.UnixMilli()),
		Quantity:    trade.Quantity,
		Price:       trade.Price,
		Symbol:      trade.Symbol,
	}

	buyer := base
	buyer.Side = Buy
	buyer.OrderID = trade.BuyOrderID
	buyer.Counterparty = trade.SellOrderID
	buyer.CounterpartyLen = uint16(len(buyer.Counterparty))

	seller := base
	seller.Side = Sell
	seller.OrderID = trade.SellOrderID
	seller.Counterparty = trade.BuyOrderID
	seller.CounterpartyLen = uint16(len(seller.Counterparty))

	buyerReport, err = buyer.Serialize()
	if err != nil {
		return nil, nil, err
	}
	sellerReport, err = seller.Serialize()
	if err != nil {
		return nil, nil, err
	}
	return buyerReport, sellerReport, nil
}

func reportForAck(order Order) ([]byte, error) {
	report := Report{
		MessageType: AckReport,
		Side:        order.Side,
		Timestamp:   uint64(order.Timestamp.UnixMilli()),
		Quantity:    order.Quantity,
		Price:       order.LimitPrice,
		Symbol:      order.Symbol,
		OrderID:     order.OrderID,
	}
	return report.Serialize()
}

func reportForError(orderID string, err error) ([]byte, error) {
	errStr := fmt.Sprintf("%v", err)
	report := Report{
		MessageType: ErrorReport,
		Timestamp:   uint64(time.Now().UnixMilli()),
		ErrStrLen:   uint32(len(errStr)),
		OrderID:     orderID,
		Err:         errStr,
	}
	return report.Serialize()
}
