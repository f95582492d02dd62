package main

import (
	"context"
	"flag"
	"os"

	"github.com/louisbranch/dungeonkit/internal/cmd/dmclient"
	"github.com/louisbranch/dungeonkit/internal/platform/cmd"
	"github.com/louisbranch/dungeonkit/internal/platform/config"
)

// main plays the session prep scenario against a running MCP server.
func main() {
	cfg, err := dmclient.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	cmd.Main(cmd.ServiceDMClient, func(ctx context.Context) error {
		return dmclient.Run(ctx, cfg, os.Stdout)
	})
}
