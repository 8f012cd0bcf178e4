package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/saiputravu/fenrir/internal/engine"
	"github.com/saiputravu/fenrir/internal/net"
	"github.com/saiputravu/fenrir/internal/notify"
	"github.com/saiputravu/fenrir/internal/persistence"
	"github.com/saiputravu/fenrir/internal/sink"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	eng := engine.New()

	srv := net.New("0.0.0.0", 9001, eng)

	csvSink, err := persistence.Open("orders.csv", "trades.csv", "cancelled.csv")
	if err != nil {
		log.Error().Err(err).Msg("unable to open persistence sink, continuing without it")
	}

	var sinks []engine.EventSink
	sinks = append(sinks, srv, notify.NewStdout())
	if csvSink != nil {
		defer csvSink.Close()
		sinks = append(sinks, csvSink)
	}
	eng.SetReporter(sink.New(sinks...))

	go srv.Run(ctx)
	<-ctx.Done()
	if csvSink != nil {
		if err := csvSink.SaveAllOrders(eng.AllOrders()); err != nil {
			log.Error().Err(err).Msg("failed to save final order snapshot")
		}
	}
	os.Exit(0)
}
