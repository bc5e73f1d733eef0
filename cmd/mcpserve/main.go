// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/modelcontextprotocol/go-mcpserver/internal/config"
	"github.com/modelcontextprotocol/go-mcpserver/internal/instructions"
	"github.com/modelcontextprotocol/go-mcpserver/internal/invoke"
	"github.com/modelcontextprotocol/go-mcpserver/internal/logging"
	"github.com/modelcontextprotocol/go-mcpserver/internal/mcpserver"
	"github.com/modelcontextprotocol/go-mcpserver/internal/observe"
	"github.com/modelcontextprotocol/go-mcpserver/internal/transport"
	"github.com/modelcontextprotocol/go-mcpserver/internal/transport/httpsse"
	"github.com/modelcontextprotocol/go-mcpserver/internal/transport/stdio"
)

var (
	cfgFile          string
	transportFlag    string
	listenAddrFlag   string
	instructionsFile string
	instructionsText string
	logLevelFlag     string
)

var rootCmd = &cobra.Command{
	Use:   "mcpserve",
	Short: "Model Context Protocol server endpoint",
	Long: `mcpserve hosts an MCP server endpoint over stdio or streamable HTTP,
dispatching tools/prompts/resources requests per the Model Context
Protocol wire format.`,
	RunE: runServer,
}

func init() {
	godotenv.Load()

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "path to a config file (yaml/json/toml)")
	rootCmd.Flags().StringVar(&transportFlag, "transport", "", "transport to serve on: stdio or httpsse (overrides config)")
	rootCmd.Flags().StringVar(&listenAddrFlag, "http-addr", "", "listen address for the httpsse transport (overrides config)")
	rootCmd.Flags().StringVar(&instructionsFile, "instructions-file", "", "path to an instructions text file published at initialize")
	rootCmd.Flags().StringVar(&instructionsText, "instructions", "", "instructions text published at initialize (overrides --instructions-file)")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "", "minimum diagnostic log level (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if transportFlag != "" {
		cfg.Transport = config.TransportKind(transportFlag)
	}
	if listenAddrFlag != "" {
		cfg.ListenAddr = listenAddrFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}

	sink, err := logging.New(logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer sink.Sync()
	zlog := sink.Sugared()

	builder := instructions.NewBuilder()
	explicitFile := instructionsFile != "" || cfg.InstructionsFile != ""
	file := instructionsFile
	if file == "" {
		file = cfg.InstructionsFile
	}
	if err := builder.LoadFromFile(file, explicitFile); err != nil {
		return err
	}
	override := instructionsText
	if override == "" {
		override = cfg.Instructions
	}
	builder.SetOverride(override)

	var trans transport.Transport
	switch cfg.Transport {
	case config.TransportHTTPSSE:
		httpTrans := httpsse.New(cfg.ListenAddr)
		if err := httpTrans.Serve("/mcp"); err != nil {
			return fmt.Errorf("failed to start httpsse transport: %w", err)
		}
		zlog.Infow("listening", "transport", "httpsse", "addr", cfg.ListenAddr)
		trans = httpTrans
	case config.TransportStdio:
		fallthrough
	default:
		trans = stdio.New(os.Stdin, os.Stdout)
		zlog.Infow("listening", "transport", "stdio")
	}

	opts := mcpserver.Options{
		ServerInfo: mcpserver.ServerInfo{
			Name:    cfg.ServerName,
			Version: cfg.ServerVersion,
		},
		ProtocolVersion: cfg.ProtocolVersion,
		Instructions:    builder.Build(),
		PageSize:        cfg.PageSize,
		Hooks:           observe.Hooks{},
		Logger:          zlog,
	}
	if cfg.CapabilityTools {
		opts.Capabilities.Tools = &mcpserver.ToolsCapability{ListChanged: cfg.ListChanged}
	}
	if cfg.CapabilityPrompts {
		opts.Capabilities.Prompts = &mcpserver.PromptsCapability{ListChanged: cfg.ListChanged}
	}
	if cfg.CapabilityResources {
		opts.Capabilities.Resources = &mcpserver.ResourcesCapability{ListChanged: cfg.ListChanged}
	}
	if cfg.CapabilityLogging {
		opts.Capabilities.Logging = &struct{}{}
	}

	srv, err := mcpserver.New(trans, opts)
	if err != nil {
		return fmt.Errorf("failed to construct mcp server: %w", err)
	}

	if err := registerExampleTools(srv); err != nil {
		return fmt.Errorf("failed to register example tools: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run(ctx)
	}()

	select {
	case sig := <-sigChan:
		zlog.Infow("received signal, shutting down", "signal", sig.String())
		cancel()
		<-errChan
		return nil
	case err := <-errChan:
		return err
	}
}

type echoArgs struct {
	Message string `json:"message"`
}

type timeArgs struct{}

// registerExampleTools wires a couple of illustrative tools so the
// binary is useful out of the box; production servers typically
// replace these with domain-specific registrations via the same
// Server.RegisterTool call.
func registerExampleTools(srv *mcpserver.Server) error {
	if err := srv.RegisterTool("echo", "Echoes the given message back", func(ctx context.Context, a echoArgs) (any, error) {
		return a.Message, nil
	}, invoke.Options{}, nil); err != nil {
		return err
	}

	readOnly := true
	return srv.RegisterTool("server_time", "Returns the server's current time in RFC3339", func(ctx context.Context, a timeArgs) (any, error) {
		return time.Now().Format(time.RFC3339), nil
	}, invoke.Options{}, &mcpserver.ToolAnnotations{
		Title:        "Server time",
		ReadOnlyHint: &readOnly,
	})
}
