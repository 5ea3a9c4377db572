package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/peter-kozarec/parity/internal/dbg"
	"github.com/peter-kozarec/parity/pkg/broker/wire"
	"github.com/peter-kozarec/parity/pkg/bus"
	"github.com/peter-kozarec/parity/pkg/cfg"
	"github.com/peter-kozarec/parity/pkg/copier"
	"github.com/peter-kozarec/parity/pkg/journal"
	"github.com/peter-kozarec/parity/pkg/middleware"
)

func main() {
	_ = godotenv.Load()

	logger := dbg.NewDevLogger()
	defer logger.Sync()

	configPath := flag.String("config", "copier.yaml", "path to the configuration file")
	calibrate := flag.Bool("calibrate", false, "probe multipliers and exit without trading")
	flag.Parse()

	logger.Info("parity started", zap.String("version", Version))
	defer logger.Info("parity finished")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fileCfg, err := cfg.LoadFromFile(*configPath)
	if err != nil {
		logger.Fatal("unable to load configuration", zap.Error(err))
	}
	creds, err := fileCfg.LoadCredentials()
	if err != nil {
		logger.Fatal("unable to load credentials", zap.Error(err))
	}

	session, err := wire.Dial(logger, fileCfg.Endpoint, creds.AppID, creds.AppSecret, creds.AccessToken)
	if err != nil {
		logger.Fatal("unable to connect", zap.Error(err))
	}
	defer logger.Info("connection closed")
	defer session.Close()

	router := bus.NewRouter(RouterEventCapacity)

	var options []copier.EngineOption
	if fileCfg.JournalPath != "" {
		j, err := journal.Open(fileCfg.JournalPath)
		if err != nil {
			logger.Fatal("unable to open journal", zap.Error(err))
		}
		defer func() {
			_ = j.Close()
		}()
		options = append(options, copier.WithJournal(j))
	}

	engine := copier.NewEngine(logger, router, session, fileCfg.Copier(), options...)

	monitor := middleware.NewMonitor(MonitorFlags)
	telemetry := middleware.NewTelemetry(logger)

	router.OnQuote = telemetry.WithQuote(monitor.WithQuote(engine.HandleQuote))
	router.OnSignal = telemetry.WithSignal(monitor.WithSignal(engine.HandleSignal))
	router.OnOrderAdvice = telemetry.WithOrderAdvice(monitor.WithOrderAdvice(engine.HandleOrderAdvice))
	router.OnCloseAdvice = telemetry.WithCloseAdvice(monitor.WithCloseAdvice(engine.HandleCloseAdvice))
	router.OnOrderRejected = telemetry.WithOrderRejected(monitor.WithOrderRejected(engine.HandleOrderRejected))

	done := router.Exec(ctx)

	if err := engine.Bootstrap(ctx); err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}

	if *calibrate {
		// Let the first spot quotes land, then stop dispatching before probing
		// so the probe reads settled state.
		select {
		case <-time.After(3 * time.Second):
		case <-ctx.Done():
		}
		cancel()
		<-done
		engine.Calibrate(context.Background())
		return
	}

	defer telemetry.Report()
	defer func() {
		router.Statistics().Print()
	}()

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("something unexpected happened", zap.Error(err))
	}
}
