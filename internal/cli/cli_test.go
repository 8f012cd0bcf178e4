package cli

import (
	"strings"
	"testing"

	. "github.com/saiputravu/fenrir/internal/common"
	"github.com/saiputravu/fenrir/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExporter struct{ saved []Order }

func (f *fakeExporter) SaveAllOrders(orders []Order) error {
	f.saved = orders
	return nil
}

func run(eng *engine.Engine, exporter Exporter, script string) string {
	var out strings.Builder
	New(eng, exporter, strings.NewReader(script), &out).Run()
	return out.String()
}

func TestPlaceOrder_ThenViewBook(t *testing.T) {
	eng := engine.New()
	script := "1\nAAPL\nBUY\nLIMIT\n100\n10\n4\nAAPL\n6\n"

	output := run(eng, nil, script)

	assert.Contains(t, output, "order placed successfully")
	assert.Contains(t, output, "bids:")

	snap, err := eng.Snapshot("AAPL")
	require.NoError(t, err)
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, uint64(10), snap.Bids[0].Orders[0].Quantity)
}

func TestPlaceOrder_InvalidSide_IsRejectedByCLIBeforeReachingEngine(t *testing.T) {
	eng := engine.New()
	script := "1\nAAPL\nSIDEWAYS\n6\n"

	output := run(eng, nil, script)

	assert.Contains(t, output, "invalid side")
	_, err := eng.Snapshot("AAPL")
	assert.ErrorIs(t, err, engine.ErrUnknownSymbol, "engine must never see the malformed order")
}

func TestPlaceOrder_InfinitePrice_IsRejectedByCLIBeforeReachingEngine(t *testing.T) {
	eng := engine.New()
	script := "1\nAAPL\nBUY\nLIMIT\nInf\n6\n"

	output := run(eng, nil, script)

	assert.Contains(t, output, "invalid price")
	_, err := eng.Snapshot("AAPL")
	assert.ErrorIs(t, err, engine.ErrUnknownSymbol, "engine must never see the malformed order")
}

func TestCancelOrder_UnknownID(t *testing.T) {
	eng := engine.New()
	script := "3\nnonexistent\n6\n"

	output := run(eng, nil, script)
	assert.Contains(t, output, "failed to cancel")
}

func TestExportData_CallsExporter(t *testing.T) {
	eng := engine.New()
	exporter := &fakeExporter{}
	script := "1\nAAPL\nBUY\nLIMIT\n100\n10\n5\n6\n"

	run(eng, exporter, script)

	require.Len(t, exporter.saved, 1)
	assert.Equal(t, "AAPL", exporter.saved[0].Symbol)
}

func TestExit_WithoutExporter_DoesNotPanic(t *testing.T) {
	eng := engine.New()
	assert.NotPanics(t, func() {
		run(eng, nil, "6\n")
	})
}
