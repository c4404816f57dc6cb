package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/novacrypto/nova/internal/coingecko"
	"github.com/novacrypto/nova/internal/duckdb"
	"github.com/novacrypto/nova/internal/httpserver"
	"github.com/novacrypto/nova/internal/pipeline"
	"github.com/novacrypto/nova/internal/prefs"
	"github.com/novacrypto/nova/internal/socketrpc"
	"golang.org/x/sync/errgroup"
)

// runServer starts the market pipeline and its socket and HTTP surfaces.
func runServer(cfg appConfig, envFile string) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	if envFile != "" {
		log.Printf("config: loaded environment from %s", envFile)
	}

	store, err := duckdb.NewStore(cfg.DBPath, cfg.QueryTimeout)
	if err != nil {
		return fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	defer store.Close()

	retentionCleaner := duckdb.NewRetentionCleaner(store, duckdb.RetentionConfig{
		RetentionDays: cfg.HistoryRetention,
	})
	if retentionCleaner != nil {
		defer retentionCleaner.Stop()
	}

	source := coingecko.New(coingecko.Config{
		BaseURL: cfg.APIBaseURL,
		APIKey:  cfg.APIKey,
		PerPage: cfg.PerPage,
		Timeout: cfg.FetchTimeout,
		Retries: cfg.FetchRetries,
	})

	p := pipeline.New(source, store, pipeline.Config{
		PruneAfter:  cfg.DeltaPruneAfter,
		HistoryDays: cfg.HistoryDays,
		Recorder:    store,
	})
	if cfg.Currency != "" {
		if err := p.SetCurrency(cfg.Currency); err != nil {
			return fmt.Errorf("failed to set currency: %w", err)
		}
	}

	if cfg.APIEnabled {
		apiServer := httpserver.NewServer(cfg.APIAddr, p)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
	}

	sockServer := socketrpc.NewServer(cfg.SocketPath, p, prefs.New(store))
	if err := sockServer.Start(); err != nil {
		return fmt.Errorf("failed to start socket server: %w", err)
	}
	defer sockServer.Stop()

	refresher := pipeline.NewAutoRefresher(p, cfg.RefreshInterval)
	defer refresher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	printStartupBanner(cfg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		select {
		case <-sigCh:
			fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
			cancel()
		case <-gctx.Done():
			return nil
		}

		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()
		go func() {
			select {
			case <-sigCh:
				fmt.Println("\nForce shutdown.")
			case <-deadline.C:
				fmt.Println("Shutdown timed out, forcing exit.")
			}
			cleanupSocket(cfg.SocketPath)
			os.Exit(1)
		}()
		return nil
	})

	// status logger
	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				st, _ := p.Status()
				log.Printf("server: seq=%d assets=%d watched=%d state=%s", st.LastSeq, st.AssetCount, st.WatchCount, st.State)
			}
		}
	})

	if err := g.Wait(); err != nil {
		log.Printf("server: errgroup exited with error: %v", err)
	}
	return nil
}

func cleanupSocket(path string) {
	if path != "" {
		os.Remove(path)
	}
}

func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "nova")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	f, err := os.OpenFile(filepath.Join(logDir, "nova.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

func printStartupBanner(cfg appConfig) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	violet := lipgloss.NewStyle().Foreground(lipgloss.Color("135"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	on := green.Render("●")
	off := dim.Render("●")

	logo := violet.Bold(true).Render(`
    ╔╗╔╔═╗╦  ╦╔═╗
    ║║║║ ║╚╗╔╝╠═╣
    ╝╚╝╚═╝ ╚╝ ╩ ╩`)

	row := func(dot, label, value string) string {
		return fmt.Sprintf("    %s  %-14s %s", dot, label, value)
	}
	separator := dim.Render("    ─────────────────────────────────")

	lines := []string{"", logo, "    " + dim.Render("v"+version), "", separator, ""}

	lines = append(lines, bold.Render("    Market data"), "")
	lines = append(lines, row(on, "Source", violet.Render(cfg.APIBaseURL)))
	lines = append(lines, row(on, "Refresh", dim.Render(cfg.RefreshInterval.String())))
	if cfg.APIKey != "" {
		lines = append(lines, row(on, "API key", dim.Render("set")))
	} else {
		lines = append(lines, row(off, "API key", dim.Render("public tier")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Gateway"), "")
	if cfg.APIEnabled {
		lines = append(lines, row(on, "HTTP API", violet.Render(cfg.APIAddr)))
	} else {
		lines = append(lines, row(off, "HTTP API", dim.Render("disabled")))
	}
	lines = append(lines, row(on, "Unix Socket", violet.Render(shortenPath(cfg.SocketPath))), "")

	lines = append(lines, bold.Render("    Storage"), "")
	lines = append(lines, row(on, "History", dim.Render(shortenPath(cfg.DBPath))))
	if cfg.HistoryRetention > 0 {
		lines = append(lines, row(on, "Retention", dim.Render(fmt.Sprintf("%d days", cfg.HistoryRetention))))
	} else {
		lines = append(lines, row(off, "Retention", dim.Render("disabled")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Config"), "")
	if cfg.ConfigPath != "" {
		lines = append(lines, row(on, "Config File", dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, row(off, "Config File", dim.Render("default (no file)")))
	}

	lines = append(lines, "", separator, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"), "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
