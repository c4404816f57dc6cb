package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/novacrypto/nova/internal/format"
	"github.com/novacrypto/nova/internal/model"
	"github.com/novacrypto/nova/internal/socketrpc"
	"github.com/novacrypto/nova/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var socketPath string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/nova/config.yml)")
	flag.StringVar(&socketPath, "socket", "", "override socket path to connect to nova service")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Nova CLI - Market Dashboard\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if socketPath != "" {
		cfg.SocketPath = socketPath
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cfg cliConfig) error {
	client, err := socketrpc.Dial(cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("cannot connect to nova service at %s: %w\nIs the nova service running? Start it with: nova", cfg.SocketPath, err)
	}
	defer client.Close()

	theme, err := client.Theme()
	if err != nil {
		theme = model.DefaultTheme
	}
	if err := tui.InitializeTheme(theme, cfg.ThemeDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load theme '%s': %v (using default)\n", theme, err)
	}

	currencies := make([]string, 0, len(cfg.Currencies))
	for _, c := range cfg.Currencies {
		code, err := format.NormalizeCurrency(c)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping currency %q: %v\n", c, err)
			continue
		}
		currencies = append(currencies, code)
	}

	dashboard := tui.NewDashboardPage(client, cfg.RefreshInterval,
		tui.WithThemeStore(client, cfg.ThemeDir),
		tui.WithCurrencies(currencies...),
	)
	app := tui.NewApp(dashboard, tui.NewDetailPage(client))

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
