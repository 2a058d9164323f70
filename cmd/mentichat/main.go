package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"golang.org/x/time/rate"

	"mentichat/internal/config"
	"mentichat/internal/models"
	"mentichat/internal/normalizer"
	"mentichat/internal/providers/google"
	"mentichat/internal/providers/hosted"
	"mentichat/internal/repl"
	"mentichat/internal/router"
	"mentichat/internal/server"
	"mentichat/internal/session"
	"mentichat/pkg/logger"
)

type cli struct {
	Serve  serveCmd  `cmd:"" help:"Serve the chat HTTP API."`
	Chat   chatCmd   `cmd:"" default:"1" help:"Chat interactively in the terminal."`
	Models modelsCmd `cmd:"" help:"List configured providers and models."`
}

type serveCmd struct {
	Addr string `short:"a" help:"Listen address; overrides server.host and server.port."`
}

type chatCmd struct {
	Provider  string `short:"p" help:"Provider to start with (hosted or google)."`
	Model     string `short:"m" help:"Model to start with."`
	NoHistory bool   `help:"Do not read or write the input history file."`
}

type modelsCmd struct{}

// app bundles what every subcommand needs.
type app struct {
	cfg        *config.Config
	router     router.ChatRouter
	extractors []string
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return nil, err
	}

	norm := normalizer.New(cfg.Normalizer.Extractors)
	hf := hosted.NewClient(cfg.Providers.Hosted.BaseURL, cfg.Providers.Timeout)
	gem := google.NewClient(cfg.Providers.Managed.BaseURL, cfg.Providers.Managed.Model, cfg.Providers.Timeout)

	if cfg.Providers.Managed.APIKey == "" {
		logger.Warn("Google API key not configured; managed provider will report a missing credential")
	}
	return &app{cfg: cfg, router: router.New(norm, hf, gem), extractors: norm.Extractors()}, nil
}

func (c *serveCmd) Run(a *app) error {
	var limiter *rate.Limiter
	if a.cfg.Server.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(a.cfg.Server.RateLimit), a.cfg.Server.Burst)
	}
	reg := session.NewRegistry(a.router, a.cfg.Session.MaxSessions)
	srv := server.NewServer(a.cfg, reg, limiter)

	addr := c.Addr
	if addr == "" {
		addr = fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	}
	return srv.Start(addr)
}

func (c *chatCmd) Run(a *app) error {
	// The REPL talks to the terminal; keep log lines out of the transcript.
	logger.SetOutput(os.Stderr)

	historyFile := ""
	if !c.NoHistory {
		if p, err := config.Path(); err == nil {
			historyFile = filepath.Join(filepath.Dir(p), "chat_history")
		}
	}

	ctrl := session.NewController("terminal", a.router)
	return repl.New(ctrl, a.cfg, os.Stdout, c.Provider, c.Model).Run(context.Background(), historyFile)
}

func (c *modelsCmd) Run(a *app) error {
	return writeModels(os.Stdout, a)
}

type modelsReport struct {
	Providers  map[models.ProviderKind][]string `json:"providers"`
	Extractors []string                         `json:"extractors"`
}

// writeModels prints the selectable models and the extractors that compiled.
func writeModels(w io.Writer, a *app) error {
	report := modelsReport{Providers: a.cfg.Catalog(), Extractors: a.extractors}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("mentichat"),
		kong.Description("Chat front-end for hosted inference and Gemini models."),
		kong.UsageOnError(),
	)

	a, err := newApp()
	if err != nil {
		logger.Fatalf("Fatal loading config: %v", err)
	}
	if err := ctx.Run(a); err != nil {
		logger.Fatalf("%s failed: %v", ctx.Command(), err)
	}
}
