package main

// main.go — entrypoint: starts the MCP server over stdio.

import (
	"context"
	"flag"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rocq-mcp/rocq-mcp/internal/rocq"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := rocq.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sm := rocq.NewStateManager(cfg)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "rocq-mcp",
		Version: "0.2.0",
	}, nil)

	registerTools(server, sm)

	ctx := context.Background()
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("server error: %v", err)
	}

	if err := sm.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
