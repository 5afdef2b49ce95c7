// Package mcp provides an MCP (Model Context Protocol) server that exposes a
// cell table to tool-using clients.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/dendsyn/internal/logging"
	"github.com/nvandessel/dendsyn/internal/output"
	"github.com/nvandessel/dendsyn/internal/ratelimit"
	"github.com/nvandessel/dendsyn/internal/table"
)

// Server wraps the MCP SDK server around one loaded cell table.
type Server struct {
	server *sdk.Server
	table  *table.Table
	run    *table.Run
	path   string
	index  map[int64]int
	logger *slog.Logger
	events *logging.EventLogger

	limiters ratelimit.ToolLimiters
}

// Config holds server configuration.
type Config struct {
	Name      string // Server name (e.g., "dendsyn")
	Version   string // Server version
	TablePath string // Cell table file (.arrow, .csv or .db)
	RunID     string // Run to serve from a SQLite file; empty for the latest

	Logger *slog.Logger
	Events *logging.EventLogger
}

// NewServer loads the table and creates an MCP server with density tools.
func NewServer(ctx context.Context, cfg *Config) (*Server, error) {
	t, run, err := output.Load(ctx, cfg.TablePath, cfg.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to load table: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("MCP client initialized")
		},
	})

	index := make(map[int64]int, t.Len())
	for i, r := range t.Rows {
		index[r.GID] = i
	}

	s := &Server{
		server: mcpServer,
		table:  t,
		run:    run,
		path:   cfg.TablePath,
		index:  index,
		logger: logger,
		events: cfg.Events,

		limiters: ratelimit.NewToolLimiters(),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Info("Serving cell table", "path", s.path, "cells", s.table.Len())
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Close releases resources held by the server.
func (s *Server) Close() error {
	s.events.Close()
	return nil
}
