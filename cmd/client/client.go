package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	. "github.com/saiputravu/fenrir/internal/common"
	fenrirNet "github.com/saiputravu/fenrir/internal/net"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "Address of the exchange server")
	owner := flag.String("owner", "", "Owner username (compulsory for place)")
	action := flag.String("action", "place", "Action to perform: ['place', 'cancel', 'amend', 'log']")

	symbol := flag.String("symbol", "AAPL", "Symbol (max 4 chars)")
	sideStr := flag.String("side", "buy", "Order side: 'buy' or 'sell'")
	typeStr := flag.String("type", "limit", "Order type: 'limit' or 'market'")
	price := flag.Float64("price", 100.0, "Limit price")
	qtyStr := flag.String("qty", "10", "Quantity or comma-separated list (e.g. 10,20,50)")

	orderID := flag.String("order-id", "", "Order id to cancel/amend")

	flag.Parse()

	if *owner == "" && strings.ToLower(*action) == "place" {
		fmt.Println("Error: -owner is compulsory for place.")
		flag.Usage()
		os.Exit(2)
	}

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("Failed to connect to server at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s as '%s'\n", *serverAddr, *owner)

	go readReports(conn)

	side := Buy
	if strings.ToLower(*sideStr) == "sell" {
		side = Sell
	}

	orderType := LimitOrder
	if strings.ToLower(*typeStr) == "market" {
		orderType = MarketOrder
	}

	switch strings.ToLower(*action) {
	case "place":
		for _, q := range parseQuantities(*qtyStr) {
			if err := sendPlaceOrder(conn, *owner, orderType, *symbol, *price, q, side); err != nil {
				log.Printf("Failed to place order (Qty: %d): %v", q, err)
			} else {
				fmt.Printf("-> Sent %s Order: %s %d @ %.2f\n", strings.ToUpper(*sideStr), *symbol, q, *price)
			}
			time.Sleep(5 * time.Millisecond)
		}

	case "cancel":
		if *orderID == "" {
			log.Fatal("Error: -order-id is required for cancellation")
		}
		if err := sendCancelOrder(conn, *orderID); err != nil {
			log.Printf("Failed to send cancel request: %v", err)
		} else {
			fmt.Printf("-> Sent Cancel Request for order: %s\n", *orderID)
		}

	case "amend":
		if *orderID == "" {
			log.Fatal("Error: -order-id is required for amend")
		}
		if err := sendAmendOrder(conn, *orderID, *price, parseQuantities(*qtyStr)[0]); err != nil {
			log.Printf("Failed to send amend request: %v", err)
		} else {
			fmt.Printf("-> Sent Amend Request for order: %s\n", *orderID)
		}

	case "log":
		if err := sendLog(conn); err != nil {
			log.Printf("Failed to send log request: %v", err)
		} else {
			fmt.Println("-> Sent Log Request")
		}

	default:
		log.Fatalf("Unknown action: %s", *action)
	}

	fmt.Println("\nListening for reports... (Press Ctrl+C to exit)")
	select {}
}

func parseQuantities(input string) []uint64 {
	parts := strings.Split(input, ",")
	var result []uint64
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if val, err := strconv.ParseUint(p, 10, 64); err == nil {
			result = append(result, val)
		} else {
			log.Printf("Warning: Invalid quantity '%s', skipping.", p)
		}
	}
	return result
}

func symbolBytes(symbol string) []byte {
	buf := make([]byte, fenrirNet.SymbolLen)
	copy(buf, symbol)
	return buf
}

func orderIDBytes(orderID string) []byte {
	buf := make([]byte, fenrirNet.OrderIDLen)
	copy(buf, orderID)
	return buf
}

func sendPlaceOrder(conn net.Conn, owner string, orderType OrderType, symbol string, price float64, qty uint64, side Side) error {
	usernameLen := len(owner)
	totalLen := fenrirNet.BaseMessageHeaderLen + fenrirNet.NewOrderMessageHeaderLen + usernameLen
	buf := make([]byte, totalLen)

	binary.BigEndian.PutUint16(buf[0:2], uint16(fenrirNet.NewOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(orderType))
	copy(buf[4:4+fenrirNet.SymbolLen], symbolBytes(symbol))
	offset := 4 + fenrirNet.SymbolLen
	binary.BigEndian.PutUint64(buf[offset:offset+8], math.Float64bits(price))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:offset+8], qty)
	offset += 8
	buf[offset] = byte(side)
	offset++
	buf[offset] = uint8(usernameLen)
	offset++
	copy(buf[offset:], owner)

	_, err := conn.Write(buf)
	return err
}

func sendCancelOrder(conn net.Conn, orderID string) error {
	buf := make([]byte, fenrirNet.BaseMessageHeaderLen+fenrirNet.CancelOrderMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(fenrirNet.CancelOrder))
	copy(buf[2:2+fenrirNet.OrderIDLen], orderIDBytes(orderID))
	_, err := conn.Write(buf)
	return err
}

func sendAmendOrder(conn net.Conn, orderID string, newPrice float64, newQuantity uint64) error {
	buf := make([]byte, fenrirNet.BaseMessageHeaderLen+fenrirNet.AmendOrderMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(fenrirNet.AmendOrder))
	offset := 2
	copy(buf[offset:offset+fenrirNet.OrderIDLen], orderIDBytes(orderID))
	offset += fenrirNet.OrderIDLen
	binary.BigEndian.PutUint64(buf[offset:offset+8], math.Float64bits(newPrice))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:offset+8], newQuantity)
	_, err := conn.Write(buf)
	return err
}

func sendLog(conn net.Conn) error {
	buf := make([]byte, fenrirNet.BaseMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(fenrirNet.LogBook))
	_, err := conn.Write(buf)
	return err
}

const reportFixedHeaderLen = 1 + 1 + 8 + 8 + 8 + 2 + 4 + 4 + 16

func readReports(conn net.Conn) {
	for {
		headerBuf := make([]byte, reportFixedHeaderLen)
		if _, err := io.ReadFull(conn, headerBuf); err != nil {
			if err != io.EOF {
				log.Printf("Connection lost: %v", err)
			}
			os.Exit(0)
		}

		msgType := fenrirNet.ReportMessageType(headerBuf[0])
		side := Side(headerBuf[1])
		quantity := binary.BigEndian.Uint64(headerBuf[10:18])
		price := math.Float64frombits(binary.BigEndian.Uint64(headerBuf[18:26]))
		counterpartyLen := binary.BigEndian.Uint16(headerBuf[26:28])
		errStrLen := binary.BigEndian.Uint32(headerBuf[28:32])
		symbol := strings.TrimRight(string(headerBuf[32:36]), "\x00")
		orderID := strings.TrimRight(string(headerBuf[36:52]), "\x00")

		totalVarLen := int(errStrLen) + int(counterpartyLen)
		var errStr, counterparty string
		if totalVarLen > 0 {
			varBuf := make([]byte, totalVarLen)
			if _, err := io.ReadFull(conn, varBuf); err != nil {
				log.Printf("Error reading report body: %v", err)
				return
			}
			errStr = string(varBuf[:errStrLen])
			counterparty = string(varBuf[errStrLen:])
		}

		switch msgType {
		case fenrirNet.ErrorReport:
			fmt.Printf("\n[ERROR] order %s: %s\n", orderID, errStr)
		case fenrirNet.AckReport:
			fmt.Printf("\n[ACK] order %s accepted: %s %s %d @ %.2f\n", orderID, sideLabel(side), symbol, quantity, price)
		case fenrirNet.ExecutionReport:
			fmt.Printf("\n[EXECUTION] order %s matched %s | %s | Qty: %d | Price: %.2f | vs: %s\n",
				orderID, sideLabel(side), symbol, quantity, price, counterparty)
		}
	}
}

func sideLabel(side Side) string {
	if side == Sell {
		return "SELL"
	}
	return "BUY"
}
