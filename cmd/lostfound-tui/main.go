// lostfound-tui is the administrator dashboard for the lost-and-found
// service. It shows reports as they are filed, their matches, and lets an
// administrator triage report status.
//
//	lostfound-tui login -u ADMINMCET
//	lostfound-tui            # same as: lostfound-tui dashboard
//	lostfound-tui logout
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/lostfound/tui/internal/app"
	"github.com/lostfound/tui/internal/board"
	"github.com/lostfound/tui/internal/client"
	"github.com/lostfound/tui/internal/clock"
	"github.com/lostfound/tui/internal/config"
	"github.com/lostfound/tui/internal/logging"
	"github.com/lostfound/tui/internal/metrics"
	"github.com/lostfound/tui/internal/session"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	command := "dashboard"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	var (
		configPath  string
		serverURL   string
		sessionFile string
		logLevel    string
		logFile     string
		metricsAddr string
		username    string
	)
	flagSet := pflag.NewFlagSet("lostfound-tui "+command, pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to config file")
	flagSet.StringVar(&serverURL, "server", "", "backend base URL (e.g. http://127.0.0.1:8000)")
	flagSet.StringVar(&sessionFile, "session-file", "", "where the login session is stored")
	flagSet.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	flagSet.StringVar(&logFile, "log-file", "", "log destination (the terminal belongs to the UI)")
	flagSet.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	if command == "login" {
		flagSet.StringVarP(&username, "username", "u", "", "account to log in as")
	}
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
	if flagSet.Changed("server") {
		cfg.Server.BaseURL = serverURL
	}
	if flagSet.Changed("session-file") {
		cfg.Session.File = sessionFile
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flagSet.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if flagSet.Changed("metrics-addr") {
		cfg.Metrics.Addr = metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "login":
		return login(ctx, cfg, username)
	case "logout":
		if err := session.Remove(cfg.Session.File); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Logged out")
		return nil
	case "dashboard":
		return dashboard(ctx, cfg)
	default:
		return fmt.Errorf("unknown command %q (want login, logout or dashboard)", command)
	}
}

func login(ctx context.Context, cfg *config.Config, username string) error {
	if username == "" {
		return errors.New("login requires --username (-u)")
	}
	password, err := readPassword()
	if err != nil {
		return err
	}

	gw := client.NewHTTPClient(cfg.Server.BaseURL, "", cfg.Server.RequestTimeout)
	resp, err := gw.Login(ctx, username, password)
	if err != nil {
		return err
	}

	sess := session.New(resp)
	if err := sess.Save(cfg.Session.File); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Logged in as %s (%s)\n", resp.User.Username, resp.User.Role)
	fmt.Fprintf(os.Stderr, "Session saved to %s\n", cfg.Session.File)
	if resp.User.Role != client.RoleAdmin {
		fmt.Fprintln(os.Stderr, "Note: the dashboard requires an admin account")
	}
	return nil
}

// readPassword prompts without echo on a terminal and reads one line
// from stdin otherwise.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func dashboard(ctx context.Context, cfg *config.Config) error {
	sess, err := session.Load(cfg.Session.File)
	if err == nil {
		err = sess.RequireRole(client.RoleAdmin)
	}
	if err != nil {
		return fmt.Errorf("%w (run: lostfound-tui login -u <username>)", err)
	}
	user, _ := sess.CurrentUser()

	out, err := logging.OpenFile(cfg.Log.File)
	if err != nil {
		return err
	}
	defer out.Close()
	logger := logging.New(out, cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(logger)

	feedURL, err := client.FeedURL(cfg.Server.BaseURL, cfg.Server.FeedPath)
	if err != nil {
		return err
	}

	gw := client.NewHTTPClient(cfg.Server.BaseURL, sess.Token, cfg.Server.RequestTimeout)
	stream := client.NewStreamClient(
		client.StreamConfig{
			URL:           feedURL,
			Token:         sess.Token,
			ReconnectBase: cfg.Stream.ReconnectBase,
			ReconnectMax:  cfg.Stream.ReconnectMax,
			MaxAttempts:   cfg.Stream.MaxAttempts,
		},
		client.WebSocketDialer{
			HandshakeTimeout: cfg.Stream.HandshakeTimeout,
			PingInterval:     cfg.Stream.PingInterval,
			PongTimeout:      cfg.Stream.PongTimeout,
		},
		client.WithLogger(logger),
	)

	var refresher *board.Refresher
	b := board.New(clock.Real(),
		board.WithDwell(cfg.Board.HighlightDwell),
		board.WithLogger(logger),
		board.WithMatchRefresh(func() { refresher.Request() }),
	)
	defer b.Close()
	refresher = board.NewRefresher(b, gw, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return stream.Run(ctx) })
	g.Go(func() error { return refresher.Run(ctx) })

	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		if err := metrics.Register(reg); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metrics.Handler(reg)}
		g.Go(func() error {
			logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return srv.Shutdown(context.Background())
		})
	}

	model := app.New(app.Deps{
		Ctx:     ctx,
		Cancel:  cancel,
		Gateway: gw,
		Stream:  stream,
		Board:   b,
		Matches: refresher,
		User:    user,
		Logger:  logger,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	logger.Info("dashboard started", "user", user.Username, "server", cfg.Server.BaseURL)
	return g.Wait()
}
