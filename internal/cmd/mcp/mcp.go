// Package mcp parses MCP command settings and wires the journal, dice and
// page fetcher into the MCP server.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/dungeonkit/internal/dice"
	"github.com/louisbranch/dungeonkit/internal/platform/cmd"
	"github.com/louisbranch/dungeonkit/internal/platform/errors/i18n"
	"github.com/louisbranch/dungeonkit/internal/random"
	"github.com/louisbranch/dungeonkit/internal/services/journal"
	"github.com/louisbranch/dungeonkit/internal/services/journal/storage/sqlite"
	"github.com/louisbranch/dungeonkit/internal/services/mcp/service"
	"github.com/louisbranch/dungeonkit/internal/services/rollfeed"
	"github.com/louisbranch/dungeonkit/internal/webpage"
)

// RollFeedPath serves the live roll feed next to the SSE endpoint.
const RollFeedPath = "/rolls/ws"

// Config holds MCP command configuration.
type Config struct {
	Transport    string        `env:"MCP_TRANSPORT"     envDefault:"sse"`
	HTTPAddr     string        `env:"MCP_HTTP_ADDR"     envDefault:"localhost:8000"`
	AllowedHosts []string      `env:"MCP_ALLOWED_HOSTS" envSeparator:","`
	DBPath       string        `env:"DB_PATH"           envDefault:"data/dungeonkit.db"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT"     envDefault:"15s"`
	// Seed makes every roll reproducible when set.
	Seed   string `env:"SEED"`
	Locale string `env:"LOCALE" envDefault:"en-US"`
	// MessagesDir holds extra "<locale>.yaml" error message catalogs.
	MessagesDir string `env:"MESSAGES_DIR"`
}

func bindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: sse or stdio")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for SSE transport)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite journal path")
	fs.StringVar(&cfg.Seed, "seed", cfg.Seed, "random seed for reproducible rolls")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for tool error messages")
	fs.StringVar(&cfg.MessagesDir, "messages", cfg.MessagesDir, "directory of extra error message catalogs")
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := cmd.ParseConfigFromArgs(&cfg, fs, bindFlags, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run opens the journal and serves MCP until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	transport, err := service.ParseTransportKind(cfg.Transport)
	if err != nil {
		return err
	}
	if dir := strings.TrimSpace(cfg.MessagesDir); dir != "" {
		locales, err := i18n.LoadDir(dir)
		if err != nil {
			return err
		}
		log.Printf("loaded message catalogs %v", locales)
	}
	seed, err := parseSeed(cfg.Seed)
	if err != nil {
		return err
	}
	source, err := random.NewSource(seed)
	if err != nil {
		return fmt.Errorf("seed random source: %w", err)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal directory: %w", err)
		}
	}
	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close journal: %v", err)
		}
	}()

	hub := rollfeed.NewHub()
	locale := i18n.GetCatalog(cfg.Locale).Locale()
	log.Printf("journal at %s, transport %s, locale %s", cfg.DBPath, transport, locale)

	return service.Run(ctx, service.Config{
		Transport:    transport,
		HTTPAddr:     cfg.HTTPAddr,
		AllowedHosts: cfg.AllowedHosts,
		Routes:       map[string]http.Handler{RollFeedPath: hub.Handler()},
	}, service.Deps{
		Source:  source,
		Limits:  dice.DefaultLimits,
		Journal: journal.NewService(store, journal.WithRollObserver(hub.Publish)),
		Fetcher: webpage.NewFetcher(cfg.FetchTimeout),
		Locale:  locale,
	})
}

func parseSeed(value string) (*int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	seed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("seed %q is not an integer", value)
	}
	return &seed, nil
}
