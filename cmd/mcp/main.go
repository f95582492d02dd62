package main

import (
	"context"
	"flag"
	"os"

	mcpcmd "github.com/louisbranch/dungeonkit/internal/cmd/mcp"
	"github.com/louisbranch/dungeonkit/internal/platform/cmd"
	"github.com/louisbranch/dungeonkit/internal/platform/config"
)

// main serves the dungeon master tools over SSE or stdio.
func main() {
	cfg, err := mcpcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	cmd.Main(cmd.ServiceMCP, func(ctx context.Context) error {
		return mcpcmd.Run(ctx, cfg)
	})
}
