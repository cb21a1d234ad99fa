package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tinytelemetry/cachebench/internal/logging"
	"github.com/tinytelemetry/cachebench/internal/target"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// runTarget seeds the catalog and serves the demo API until interrupted.
func runTarget(cfg appConfig) error {
	log, cleanupLogger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	defer cleanupLogger()

	svc := target.New(target.Config{
		Addr:        cfg.Addr,
		Catalog:     cfg.catalogConfig(),
		CatalogSize: cfg.CatalogSize,
		GridSize:    cfg.GridSize,
	}, log)
	if err := svc.Start(); err != nil {
		return err
	}

	// Set up context and signal handling before errgroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now, not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	printStartupBanner(cfg, svc.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return svc.Stop()
	})

	err = g.Wait()
	signal.Stop(sigCh)
	if err != nil {
		log.Error("target shutdown", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("target stopped")
	return nil
}

func printStartupBanner(cfg appConfig, addr string) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")
	separator := dim.Render("    ─────────────────────────────────")
	base := "http://" + addr

	lines := []string{
		"",
		cyan.Bold(true).Render("    cachebench target"),
		"    " + dim.Render("v"+version),
		"",
		separator,
		"",
		bold.Render("    Endpoints"),
		"",
		fmt.Sprintf("    %s  Database       %s", check, cyan.Render(base+"/api/books/db/:id")),
		fmt.Sprintf("    %s  Data grid      %s", check, cyan.Render(base+"/api/books/grid/:id")),
		fmt.Sprintf("    %s  Metrics        %s", check, cyan.Render(base+"/actuator/metrics")),
		fmt.Sprintf("    %s  Health         %s", check, cyan.Render(base+target.HealthPath)),
		"",
		bold.Render("    Catalog"),
		"",
		fmt.Sprintf("    %s  Relational     %s", check, dim.Render(cfg.Relational)),
	}

	switch {
	case cfg.Relational != "duckdb":
		lines = append(lines, fmt.Sprintf("    %s  Storage        %s", check, dim.Render(redactDSN(cfg.PostgresDSN))))
	case cfg.DBPath == "":
		lines = append(lines, fmt.Sprintf("    %s  Storage        %s", dot, dim.Render("in-memory")))
	default:
		lines = append(lines, fmt.Sprintf("    %s  Storage        %s", check, dim.Render(shortenPath(cfg.DBPath))))
	}
	lines = append(lines,
		fmt.Sprintf("    %s  Books          %s", check, dim.Render(fmt.Sprint(cfg.CatalogSize))),
		fmt.Sprintf("    %s  Grid capacity  %s", check, dim.Render(fmt.Sprint(cfg.GridSize))),
		"",
		bold.Render("    Config"),
		"",
	)
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines,
		"",
		separator,
		"",
		"    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"),
		"",
	)

	fmt.Println(strings.Join(lines, "\n"))
}

// redactDSN hides the password in a postgres URL or key=value DSN.
func redactDSN(dsn string) string {
	if i := strings.Index(dsn, "://"); i >= 0 {
		rest := dsn[i+3:]
		if at := strings.LastIndex(rest, "@"); at >= 0 {
			if colon := strings.Index(rest[:at], ":"); colon >= 0 {
				return dsn[:i+3] + rest[:colon] + ":***" + rest[at:]
			}
		}
		return dsn
	}
	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=***"
		}
	}
	return strings.Join(fields, " ")
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
