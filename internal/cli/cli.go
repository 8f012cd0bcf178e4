// Package cli is the interactive menu-driven front-end, grounded directly in the
// reference implementation's CLI class: place / modify / cancel / view book /
// export-and-exit, operating on an in-process engine instead of a shared one behind a
// socket.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	. "github.com/saiputravu/fenrir/internal/common"
	"github.com/saiputravu/fenrir/internal/engine"

	"github.com/google/uuid"
)

// Exporter persists the full order book on request. *persistence.CSVSink satisfies
// this; the CLI does not otherwise depend on the persistence package.
type Exporter interface {
	SaveAllOrders(orders []Order) error
}

// CLI drives an *engine.Engine from a line-oriented menu. Validation of user input
// (positive price/quantity, recognized side token) happens here; the engine still
// rejects violations defensively, so a CLI bug can't corrupt engine state.
type CLI struct {
	engine   *engine.Engine
	exporter Exporter

	in  *bufio.Scanner
	out io.Writer
}

func New(eng *engine.Engine, exporter Exporter, in io.Reader, out io.Writer) *CLI {
	return &CLI{
		engine:   eng,
		exporter: exporter,
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

// Run drives the menu loop and returns the process exit code: 0 on the user choosing
// to exit cleanly, 1 if input ends or fails before that.
func (c *CLI) Run() int {
	for {
		c.displayMenu()
		choice, ok := c.readLine()
		if !ok {
			fmt.Fprintln(c.out, "input closed, exiting")
			return 1
		}

		switch strings.TrimSpace(choice) {
		case "1":
			c.placeOrder()
		case "2":
			c.amendOrder()
		case "3":
			c.cancelOrder()
		case "4":
			c.viewOrderBook()
		case "5":
			c.exportData()
		case "6":
			c.exportData()
			fmt.Fprintln(c.out, "goodbye!")
			return 0
		default:
			fmt.Fprintln(c.out, "invalid choice, please try again.")
		}
	}
}

func (c *CLI) displayMenu() {
	fmt.Fprintln(c.out, "\n--- fenrir trading engine ---")
	fmt.Fprintln(c.out, "1. Place Order (BUY/SELL)")
	fmt.Fprintln(c.out, "2. Amend Order")
	fmt.Fprintln(c.out, "3. Cancel Order")
	fmt.Fprintln(c.out, "4. View Order Book")
	fmt.Fprintln(c.out, "5. Export All Current Orders")
	fmt.Fprintln(c.out, "6. Exit")
	fmt.Fprintln(c.out, "------------------------------")
	fmt.Fprint(c.out, "Enter your choice: ")
}

func (c *CLI) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return c.in.Text(), true
}

func (c *CLI) prompt(label string) (string, bool) {
	fmt.Fprint(c.out, label)
	return c.readLine()
}

func (c *CLI) placeOrder() {
	fmt.Fprintln(c.out, "\n--- Place New Order ---")

	symbol, ok := c.prompt("Enter Symbol (e.g., AAPL): ")
	if !ok {
		return
	}
	symbol = strings.TrimSpace(symbol)

	sideStr, ok := c.prompt("Enter Side (BUY/SELL): ")
	if !ok {
		return
	}
	side, ok := parseSide(sideStr)
	if !ok {
		fmt.Fprintln(c.out, "invalid side. must be BUY or SELL.")
		return
	}

	typeStr, ok := c.prompt("Enter Type (LIMIT/MARKET): ")
	if !ok {
		return
	}
	orderType, ok := parseOrderType(typeStr)
	if !ok {
		fmt.Fprintln(c.out, "invalid order type. must be LIMIT or MARKET.")
		return
	}

	var price float64
	if orderType == LimitOrder {
		priceStr, ok := c.prompt("Enter Price: ")
		if !ok {
			return
		}
		price, ok = parsePositiveFloat(priceStr)
		if !ok {
			fmt.Fprintln(c.out, "invalid price. please enter a positive number.")
			return
		}
	}

	qtyStr, ok := c.prompt("Enter Quantity: ")
	if !ok {
		return
	}
	quantity, ok := parsePositiveUint(qtyStr)
	if !ok {
		fmt.Fprintln(c.out, "invalid quantity. please enter a positive integer.")
		return
	}

	order := Order{
		OrderID:    generateOrderID(),
		Symbol:     symbol,
		Side:       side,
		OrderType:  orderType,
		LimitPrice: price,
		Quantity:   quantity,
	}

	trades, err := c.engine.Place(order)
	if err != nil {
		fmt.Fprintf(c.out, "order rejected: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "order placed successfully with id: %s (%d trades)\n", order.OrderID, len(trades))
}

func (c *CLI) amendOrder() {
	fmt.Fprintln(c.out, "\n--- Amend Existing Order ---")

	orderID, ok := c.prompt("Enter Order ID to amend: ")
	if !ok {
		return
	}
	orderID = strings.TrimSpace(orderID)

	priceStr, ok := c.prompt("Enter New Price: ")
	if !ok {
		return
	}
	newPrice, ok := parsePositiveFloat(priceStr)
	if !ok {
		fmt.Fprintln(c.out, "invalid price. please enter a positive number.")
		return
	}

	qtyStr, ok := c.prompt("Enter New Quantity: ")
	if !ok {
		return
	}
	newQuantity, ok := parsePositiveUint(qtyStr)
	if !ok {
		fmt.Fprintln(c.out, "invalid quantity. please enter a positive integer.")
		return
	}

	if _, err := c.engine.Amend(orderID, newPrice, newQuantity); err != nil {
		fmt.Fprintf(c.out, "amend failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "order %s amended.\n", orderID)
}

func (c *CLI) cancelOrder() {
	fmt.Fprintln(c.out, "\n--- Cancel Order ---")
	orderID, ok := c.prompt("Enter Order ID to cancel: ")
	if !ok {
		return
	}
	orderID = strings.TrimSpace(orderID)

	if ok, err := c.engine.Cancel(orderID); err != nil || !ok {
		fmt.Fprintf(c.out, "failed to cancel order %s. it might not exist or already be matched.\n", orderID)
		return
	}
	fmt.Fprintf(c.out, "order %s cancelled successfully.\n", orderID)
}

func (c *CLI) viewOrderBook() {
	fmt.Fprintln(c.out, "\n--- View Order Book ---")
	symbol, ok := c.prompt("Enter Symbol to view (e.g., AAPL): ")
	if !ok {
		return
	}
	symbol = strings.TrimSpace(symbol)

	snapshot, err := c.engine.Snapshot(symbol)
	if err != nil {
		fmt.Fprintf(c.out, "no such symbol: %s\n", symbol)
		return
	}

	fmt.Fprintf(c.out, "%s book:\n  asks:\n", symbol)
	for _, level := range snapshot.Asks {
		printLevel(c.out, level)
	}
	fmt.Fprintln(c.out, "  bids:")
	for _, level := range snapshot.Bids {
		printLevel(c.out, level)
	}
}

func printLevel(out io.Writer, level engine.FlatPriceLevel) {
	var total uint64
	for _, order := range level.Orders {
		total += order.Quantity
	}
	fmt.Fprintf(out, "    %.2f x %d (%d orders)\n", level.PriceLevel, total, len(level.Orders))
}

func (c *CLI) exportData() {
	fmt.Fprintln(c.out, "\n--- Exporting All Current Orders ---")
	if c.exporter == nil {
		fmt.Fprintln(c.out, "no exporter configured; skipping.")
		return
	}
	if err := c.exporter.SaveAllOrders(c.engine.AllOrders()); err != nil {
		fmt.Fprintf(c.out, "export failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "all current orders exported.")
}

func generateOrderID() string {
	return "ORD-" + uuid.New().String()
}

func parseSide(input string) (Side, bool) {
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case "BUY":
		return Buy, true
	case "SELL":
		return Sell, true
	default:
		return Side(0), false
	}
}

func parseOrderType(input string) (OrderType, bool) {
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case "LIMIT", "":
		return LimitOrder, true
	case "MARKET":
		return MarketOrder, true
	default:
		return OrderType(0), false
	}
}

func parsePositiveFloat(input string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil || value <= 0 || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

func parsePositiveUint(input string) (uint64, bool) {
	value, err := strconv.ParseUint(strings.TrimSpace(input), 10, 64)
	if err != nil || value == 0 {
		return 0, false
	}
	return value, true
}
