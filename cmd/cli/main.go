package main

import (
	"flag"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/saiputravu/fenrir/internal/cli"
	"github.com/saiputravu/fenrir/internal/engine"
	"github.com/saiputravu/fenrir/internal/notify"
	"github.com/saiputravu/fenrir/internal/persistence"
	"github.com/saiputravu/fenrir/internal/sink"
)

func main() {
	ordersFile := flag.String("orders-file", "orders.csv", "path to the orders CSV export")
	tradesFile := flag.String("trades-file", "trades.csv", "path to the trades CSV log")
	cancelledFile := flag.String("cancelled-file", "cancelled.csv", "path to the cancelled-orders CSV log")
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols to pre-create (optional)")
	flag.Parse()

	if *ordersFile == "" || *tradesFile == "" || *cancelledFile == "" {
		log.Error().Msg("persistence file paths must not be empty")
		flag.Usage()
		os.Exit(2)
	}

	var symbols []string
	if strings.TrimSpace(*symbolsFlag) != "" {
		for _, s := range strings.Split(*symbolsFlag, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, s)
			}
		}
	}

	eng := engine.New(symbols...)

	csvSink, err := persistence.Open(*ordersFile, *tradesFile, *cancelledFile)
	if err != nil {
		log.Error().Err(err).Msg("unable to open persistence files")
		os.Exit(2)
	}
	defer csvSink.Close()
	eng.SetReporter(sink.New(csvSink, notify.NewStdout()))

	front := cli.New(eng, csvSink, os.Stdin, os.Stdout)
	os.Exit(front.Run())
}
