// Package server exposes wingman actions as MCP tools.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/robfig/cron/v3"

	"github.com/mj1618/wingman/internal/model"
	"github.com/mj1618/wingman/internal/orchestrator"
	"github.com/mj1618/wingman/internal/version"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "streamable-http"
)

// Pipeline is the part of the orchestrator the tools drive.
type Pipeline interface {
	ReadProfile(ctx context.Context) (*orchestrator.ReadResult, error)
	ReadChat(ctx context.Context) (*orchestrator.ReadResult, error)
	Suggest(ctx context.Context, req orchestrator.SuggestRequest) (*orchestrator.SuggestResult, error)
	Paste(ctx context.Context, req orchestrator.PasteRequest) (*orchestrator.DeliveryResult, error)
	AIType(ctx context.Context, req orchestrator.AITypeRequest) (*orchestrator.DeliveryResult, error)
	LocateInput(ctx context.Context, annotate string) (*orchestrator.LocateResult, error)
	DetectDisplays(ctx context.Context) (*orchestrator.DisplayReport, error)
	Warm(ctx context.Context) (time.Duration, error)
}

// WindowSource lists candidate windows.
type WindowSource interface {
	List(all bool) ([]model.Window, error)
}

// Config holds MCP server settings.
type Config struct {
	Transport string
	Port      int
	// WarmSchedule is a cron spec (e.g. "@every 10m") for keeping the
	// model loaded; empty disables it.
	WarmSchedule string
}

// Server wraps the MCP server. Every tool call holds providerMu for its
// whole duration, so only one desktop action runs at a time.
type Server struct {
	pipeline   Pipeline
	windows    WindowSource
	cache      *TreeCache
	providerMu sync.Mutex
	mcp        *mcpserver.MCPServer
	logger     *slog.Logger
}

// New creates a server. cache may be nil.
func New(pipeline Pipeline, windows WindowSource, cache *TreeCache, logger *slog.Logger) *Server {
	s := &Server{
		pipeline: pipeline,
		windows:  windows,
		cache:    cache,
		logger:   logger.With("component", "mcp"),
	}
	s.mcp = mcpserver.NewMCPServer(
		"wingman",
		version.Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)
	s.registerTools()
	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *mcpserver.MCPServer { return s.mcp }

// Serve runs the configured transport until it fails or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, cfg Config) error {
	if cfg.WarmSchedule != "" {
		stop, err := s.StartWarmSchedule(cfg.WarmSchedule)
		if err != nil {
			return err
		}
		defer stop()
	}

	switch cfg.Transport {
	case "", TransportStdio:
		s.logger.Info("serving MCP over stdio")
		return mcpserver.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
	case TransportHTTP:
		addr := fmt.Sprintf(":%d", cfg.Port)
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		errCh := make(chan error, 1)
		go func() { errCh <- httpServer.Start(addr) }()
		s.logger.Info("serving MCP over streamable HTTP", "addr", addr)

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		}
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

// StartWarmSchedule warms the model on a cron schedule. The returned
// function stops the scheduler and waits for a running warm-up.
func (s *Server) StartWarmSchedule(spec string) (func(), error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, s.warm); err != nil {
		return nil, fmt.Errorf("invalid warm schedule %q: %w", spec, err)
	}
	c.Start()
	s.logger.Info("model warm-up scheduled", "schedule", spec)
	return func() { <-c.Stop().Done() }, nil
}

func (s *Server) warm() {
	s.providerMu.Lock()
	defer s.providerMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if d, err := s.pipeline.Warm(ctx); err != nil {
		s.logger.Warn("scheduled warm-up failed", "error", err)
	} else {
		s.logger.Debug("scheduled warm-up done", "elapsed", d)
	}
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("list_windows",
			mcp.WithDescription("List candidate phone-mirroring windows. The first entry is the one actions target."),
			mcp.WithBoolean("all", mcp.Description("Include every usable top-level window, not only phone windows")),
		),
		s.handleListWindows,
	)

	s.mcp.AddTool(
		mcp.NewTool("read_profile",
			mcp.WithDescription("Read the match's profile bio from the target window (accessibility first, OCR fallback)"),
		),
		s.handleReadProfile,
	)

	s.mcp.AddTool(
		mcp.NewTool("read_chat",
			mcp.WithDescription("Read the visible chat transcript from the target window (accessibility first, OCR fallback)"),
		),
		s.handleReadChat,
	)

	s.mcp.AddTool(
		mcp.NewTool("suggest_replies",
			mcp.WithDescription("Generate up to 5 reply suggestions for the current conversation and record them"),
			mcp.WithString("name", mcp.Description("Match name, used for the person folder")),
			mcp.WithString("tone", mcp.Description("Tone override, e.g. playful, warm, direct")),
			mcp.WithString("custom_request", mcp.Description("Extra instruction for this batch, e.g. 'ask about the dog'")),
			mcp.WithBoolean("read", mcp.Description("Re-read the window instead of reusing the last read")),
		),
		s.handleSuggest,
	)

	s.mcp.AddTool(
		mcp.NewTool("paste_reply",
			mcp.WithDescription("Type a reply into the target window. Throttled per chat."),
			mcp.WithString("text", mcp.Description("Reply text"), mcp.Required()),
			mcp.WithString("mode", mcp.Description("focus_phone_link (default) or paste_at_cursor")),
			mcp.WithBoolean("send", mcp.Description("Press Enter after typing")),
		),
		s.handlePaste,
	)

	s.mcp.AddTool(
		mcp.NewTool("ai_type",
			mcp.WithDescription("Let the local model drive focus/type/enter tools to deliver a reply"),
			mcp.WithString("text", mcp.Description("Reply text"), mcp.Required()),
			mcp.WithBoolean("send_after", mcp.Description("Press Enter after typing")),
			mcp.WithString("title_regex", mcp.Description("Window title pattern to focus")),
		),
		s.handleAIType,
	)

	s.mcp.AddTool(
		mcp.NewTool("locate_input",
			mcp.WithDescription("Ask the vision model where the reply box is; returns screen coordinates"),
			mcp.WithString("annotate", mcp.Description("Write an annotated screenshot to this path")),
		),
		s.handleLocateInput,
	)

	s.mcp.AddTool(
		mcp.NewTool("detect_displays",
			mcp.WithDescription("Record attached monitors and the active one in the config; narrows the chat crop on high-DPI screens"),
		),
		s.handleDetectDisplays,
	)

	s.mcp.AddTool(
		mcp.NewTool("warm_model",
			mcp.WithDescription("Load the local model with a tiny request"),
		),
		s.handleWarm,
	)
}
