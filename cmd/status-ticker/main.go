package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	flag "github.com/spf13/pflag"

	"github.com/marcin-skalski/status-ticker/internal/config"
	"github.com/marcin-skalski/status-ticker/internal/daemon"
	"github.com/marcin-skalski/status-ticker/internal/logging"
	"github.com/marcin-skalski/status-ticker/internal/mailbox"
	"github.com/marcin-skalski/status-ticker/internal/marquee"
	"github.com/marcin-skalski/status-ticker/internal/platform"
	"github.com/marcin-skalski/status-ticker/internal/sources"
	"github.com/marcin-skalski/status-ticker/internal/status"
	"github.com/marcin-skalski/status-ticker/internal/tui"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.StringP("config", "c", "status-ticker.yaml", "path to config file")
	noTUI := flag.Bool("no-tui", false, "disable the terminal bar and log refreshes instead")
	once := flag.Bool("once", false, "run one aggregation pass, print it and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	// Auto-detect TUI capability
	enableTUI := !*noTUI && !*once && os.Getenv("STATUS_TICKER_TUI") != "0" &&
		isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())

	logger, closer, err := logging.Setup(cfg.LogFile, cfg.Log.Level, enableTUI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup logger: %v\n", err)
		return 1
	}
	defer closer.Close()

	client := sources.NewClient(cfg.HTTPTimeout, logger)
	fetchers := sources.Default(client, cfg.URLs(), cfg.Sources.GoogleWorkspace.Watch)
	agg := sources.NewAggregator(fetchers, *cfg.Sources.IsolateFailures, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		return runOnce(ctx, agg, os.Stdout)
	}

	pending := &mailbox.Slot[[]status.Segment]{}
	d := daemon.New(cfg, agg, pending, logger)

	if !enableTUI {
		logger.Info("status-ticker starting (headless)", "config", *configPath)
		d.SetNotifier(headlessNotifier(pending, logger))
		if err := d.Run(ctx); err != nil {
			logger.Error("daemon error", "err", err)
			return 1
		}
		return 0
	}

	release, err := dock(platform.New(), cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer release()

	strip := marquee.New(pending, marquee.Options{
		Separator: cfg.Bar.Separator,
		Speed:     cfg.Scroll.Speed,
		Gap:       cfg.Scroll.Gap,
	})
	m := tui.NewModel(strip, d, platform.OpenURL, tui.NewStyles(cfg.Colors), cfg.Scroll.TickInterval, logger)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	d.SetNotifier(programNotifier(p.Send))

	go func() {
		logger.Info("status-ticker daemon starting in background", "config", *configPath)
		if err := d.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("daemon error", "err", err)
			p.Quit()
		}
	}()

	_, err = p.Run()
	d.Close()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}

// programNotifier adapts tea.Program.Send to the daemon's notifier.
func programNotifier(send func(tea.Msg)) daemon.Notifier {
	return func(msg any) { send(msg) }
}

// dock places the bar window and reserves its strip. Platforms without an app
// bar API are not an error; any other setup failure aborts startup.
func dock(display platform.Display, cfg *config.Config, logger *slog.Logger) (func(), error) {
	_, release, err := platform.Dock(display, cfg.Bar.MonitorIndex, cfg.Bar.Height, *cfg.Bar.ReserveSpace, logger)
	switch {
	case errors.Is(err, platform.ErrUnsupported):
		logger.Info("app bar docking not available on this platform")
		return func() {}, nil
	case err != nil:
		return nil, fmt.Errorf("dock bar: %w", err)
	}
	return release, nil
}

// runOnce prints a single aggregation pass. It exits 1 when the pass failed
// and 2 when it succeeded with some sources unavailable.
func runOnce(ctx context.Context, agg *sources.Aggregator, w io.Writer) int {
	res, err := agg.BuildSegments(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	printSegments(w, res.Segments)
	if err := res.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "unavailable: %v\n", err)
		return 2
	}
	return 0
}

func printSegments(w io.Writer, segs []status.Segment) {
	for _, s := range segs {
		fmt.Fprintf(w, "%-8s  %s", s.Severity, s.Text)
		if s.Linked() {
			fmt.Fprintf(w, "  <%s>", s.URL)
		}
		fmt.Fprintln(w)
	}
}

// headlessNotifier logs daemon messages and drains the pending slot so each
// completed pass is reported once.
func headlessNotifier(pending *mailbox.Slot[[]status.Segment], logger *slog.Logger) daemon.Notifier {
	return func(msg any) {
		switch msg := msg.(type) {
		case daemon.StatusMsg:
			logger.Info(msg.Text)
		case daemon.RefreshedMsg:
			segs, ok := pending.Take()
			if !ok {
				return
			}
			for _, s := range segs {
				logger.Info("segment", "seq", msg.Seq, "severity", s.Severity, "text", s.Text, "url", s.URL)
			}
		}
	}
}
