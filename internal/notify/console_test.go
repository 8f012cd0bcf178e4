package notify

import (
	"bytes"
	"testing"

	. "github.com/saiputravu/fenrir/internal/common"

	"github.com/stretchr/testify/assert"
)

func TestOrderAccepted_PrintsOrderDetails(t *testing.T) {
	var buf bytes.Buffer
	sink := New(&buf)

	sink.OrderAccepted(Order{OrderID: "A", Symbol: "AAPL", Side: Buy, LimitPrice: 100, Quantity: 5})

	assert.Contains(t, buf.String(), "order placed")
	assert.Contains(t, buf.String(), "AAPL")
}

func TestTradeExecuted_PrintsTradeDetails(t *testing.T) {
	var buf bytes.Buffer
	sink := New(&buf)

	sink.TradeExecuted(Trade{TradeID: 1, Symbol: "AAPL", Price: 100, Quantity: 5})

	assert.Contains(t, buf.String(), "trade matched")
}

func TestOrderRejected_PrintsReason(t *testing.T) {
	var buf bytes.Buffer
	sink := New(&buf)

	sink.OrderRejected(Order{OrderID: "A"}, assert.AnError)

	assert.Contains(t, buf.String(), "order rejected")
}
