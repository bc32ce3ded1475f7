package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazyhaar/reviewlab/pkg/api"
	"github.com/hazyhaar/reviewlab/pkg/corpus"
	"github.com/hazyhaar/reviewlab/pkg/dataset"
	"github.com/hazyhaar/reviewlab/pkg/session"
	"github.com/hazyhaar/reviewlab/pkg/textclean"
	"github.com/mark3labs/mcp-go/server"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "mcp":
		cmdMCP(os.Args[2:])
	case "clean":
		cmdClean(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: reviewlab <command> [flags]

Commands:
  serve   Start the HTTP API
  mcp     Serve the review tools over MCP (stdio)
  clean   Clean a dataset column and print one row per line
`)
}

// app bundles what every subcommand needs.
type app struct {
	cfg      config
	logger   *slog.Logger
	store    *corpus.Store
	sessions *session.Manager
	cleaner  api.CleanerFactory
}

func newApp(cfgPath string) *app {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := loadConfig(cfgPath, logger)
	level.Set(cfg.level())

	a := &app{cfg: cfg, logger: logger}

	var words textclean.WordSource
	if !cfg.Offline {
		store, err := corpus.OpenStore(cfg.CorpusDB)
		if err != nil {
			// The fetcher still works uncached.
			logger.Warn("corpus cache unavailable", "path", cfg.CorpusDB, "error", err)
		}
		a.store = store
		words = corpus.NewFetcher(store, cfg.CorpusURL, logger)
	}

	a.cleaner = func(o textclean.Options) *textclean.Cleaner {
		opts := []textclean.Option{textclean.WithLogger(logger)}
		if words != nil {
			opts = append(opts, textclean.WithCorpus(words))
		}
		return textclean.New(o, opts...)
	}

	a.sessions = session.NewManager(session.Config{
		DefaultPath: cfg.DatasetPath,
		Parse:       a.parseOptions(),
		Logger:      logger,
		MaxSessions: cfg.SessionMax,
		IdleTimeout: cfg.SessionIdle,
	})
	return a
}

func (a *app) parseOptions() dataset.Options {
	return dataset.Options{Encoding: a.cfg.DatasetEncoding, Logger: a.logger}
}

func (a *app) apiConfig() api.Config {
	return api.Config{
		Sessions:   a.sessions,
		NewCleaner: a.cleaner,
		Defaults:   a.cfg.Cleaner,
		Parse:      a.parseOptions(),
		Logger:     a.logger,
		Timeout:    a.cfg.RequestTimeout,
	}
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	addr := fs.String("addr", "", "listen address (overrides config)")
	fs.Parse(args)

	a := newApp(*cfgPath)
	defer a.close()
	if *addr != "" {
		a.cfg.Addr = *addr
	}

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           api.NewRouter(a.apiConfig()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go a.sessions.Run(ctx, time.Minute)

	go func() {
		a.logger.Info("reviewlab listening", "addr", a.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	a := newApp(*cfgPath)
	defer a.close()

	// One stdio connection is one interactive session.
	s := a.sessions.Open()
	defer a.sessions.Close(s.ID)

	srv := server.NewMCPServer("reviewlab", version, server.WithToolCapabilities(false))
	api.RegisterMCPTools(srv, a.apiConfig(), s.ID)

	if err := server.ServeStdio(srv); err != nil {
		a.logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
