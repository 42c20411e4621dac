// lostfound-mock serves the lost-and-found REST API and admin event feed
// from memory. It seeds accounts and historical reports, then files a
// synthetic report on an interval so the dashboard has something to show.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/lostfound/tui/internal/config"
	"github.com/lostfound/tui/internal/logging"
	"github.com/lostfound/tui/internal/mockserver"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		configPath string
		addr       string
		interval   time.Duration
		seedCount  int
		seed       uint64
		logLevel   string
	)
	flagSet := pflag.NewFlagSet("lostfound-mock", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to config file")
	flagSet.StringVar(&addr, "addr", "", "listen address")
	flagSet.DurationVar(&interval, "emit-interval", 0, "time between synthetic reports")
	flagSet.IntVar(&seedCount, "seed-reports", 40, "historical reports to create at startup")
	flagSet.Uint64Var(&seed, "seed", uint64(time.Now().UnixNano()), "random seed for generated reports")
	flagSet.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("addr") {
		cfg.Mock.Addr = addr
	}
	if flagSet.Changed("emit-interval") {
		cfg.Mock.EmitInterval = interval
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if cfg.Mock.EmitInterval <= 0 {
		return errors.New("emit interval must be positive")
	}

	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(logger)

	srv := mockserver.NewServer(mockserver.NewStore(), mockserver.Options{
		Secret:   cfg.Mock.Secret,
		TokenTTL: cfg.Mock.TokenTTL,
		MaxConns: cfg.Mock.MaxConns,
		Logger:   logger,
	})
	gen := mockserver.NewGenerator(srv, cfg.Mock.EmitInterval, seed)
	gen.Seed(seedCount, time.Now())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	httpServer := &http.Server{
		Addr:              cfg.Mock.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("mock backend listening", "addr", cfg.Mock.Addr, "emit_interval", cfg.Mock.EmitInterval)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		srv.Broadcaster().Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	gen.Start(ctx)

	return g.Wait()
}
