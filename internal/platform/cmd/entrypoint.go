// Package cmd holds startup helpers shared by dungeonkit commands.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/louisbranch/dungeonkit/internal/platform/config"
	"github.com/louisbranch/dungeonkit/internal/platform/otel"
	"github.com/louisbranch/dungeonkit/internal/platform/timeouts"
)

// Service names used for telemetry and log prefixes.
const (
	ServiceMCP      = "mcp"
	ServiceDMClient = "dmclient"
)

// ParseConfigFromArgs loads defaults from env into cfg and then parses flags,
// which the caller has bound to cfg's fields.
func ParseConfigFromArgs[T any](cfg *T, fs *flag.FlagSet, bind func(*flag.FlagSet, *T), args []string) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if err := config.ParseEnv(cfg); err != nil {
		return err
	}
	if bind != nil {
		bind(fs, cfg)
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// Main runs a command until SIGINT or SIGTERM, with tracing configured for
// service. It exits the process when run fails.
func Main(service string, run func(context.Context) error) {
	log.SetPrefix("[" + strings.ToUpper(service) + "] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RunWithTelemetry(ctx, service, run); err != nil {
		stop()
		config.Exitf("%s: %v", service, err)
	}
}

// RunWithTelemetry configures tracing and executes a service run loop.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.TelemetryFlush)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}
