package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/cerberus"
	"github.com/aretw0/cerberus/internal/logging"
	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/aretw0/cerberus/pkg/permalink"
	"github.com/aretw0/cerberus/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// AnalysisArgs are the arguments shared by the analysis tools.
// Omitted settings fall back to the server defaults.
type AnalysisArgs struct {
	Source        string `json:"source"`
	Model         string `json:"model,omitempty"`
	Rewrite       *bool  `json:"rewrite,omitempty"`
	Sequentialise *bool  `json:"sequentialise,omitempty"`
}

// ExecuteArgs extends AnalysisArgs with the exploration mode.
type ExecuteArgs struct {
	AnalysisArgs
	Mode string `json:"mode,omitempty"`
}

// Server exposes the semantics service as MCP tools. It is stateless:
// every call carries its own source and settings.
type Server struct {
	service   ports.SemanticsService
	defaults  domain.AnalysisSettings
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithDefaults sets the settings used when a call omits them.
func WithDefaults(s domain.AnalysisSettings) Option {
	return func(srv *Server) {
		srv.defaults = s
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) {
		srv.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(service ports.SemanticsService, opts ...Option) *Server {
	s := &Server{
		service:   service,
		defaults:  domain.DefaultSettings().Analysis(),
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("cerberus-mcp", strings.TrimSpace(cerberus.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func analysisOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("source", mcp.Required(), mcp.Description("C source text")),
		mcp.WithString("model", mcp.Enum(string(domain.ModelConcrete), string(domain.ModelSymbolic)), mcp.Description("Memory object model")),
		mcp.WithBoolean("rewrite", mcp.Description("Apply Core rewriting")),
		mcp.WithBoolean("sequentialise", mcp.Description("Sequentialise Core")),
	}
}

func (s *Server) registerTools() {
	// TOOL: elaborate
	elaborateTool := mcp.NewTool("elaborate", append([]mcp.ToolOption{
		mcp.WithDescription("Elaborate a C program and return its intermediate representations (Cabs, Ail, Core)."),
		mcp.WithOutputSchema[domain.ElaborationResult](),
	}, analysisOptions()...)...)
	s.mcpServer.AddTool(elaborateTool, mcp.NewStructuredToolHandler(s.handleElaborate))

	// TOOL: execute
	executeTool := mcp.NewTool("execute", append([]mcp.ToolOption{
		mcp.WithDescription("Run a C program under the semantics, randomly or exhaustively."),
		mcp.WithString("mode", mcp.Enum(string(domain.ModeRandom), string(domain.ModeExhaustive)), mcp.Description("Exploration mode (default random)")),
		mcp.WithOutputSchema[domain.ExecutionResult](),
	}, analysisOptions()...)...)
	s.mcpServer.AddTool(executeTool, mcp.NewStructuredToolHandler(s.handleExecute))

	// TOOL: permalink_encode
	encodeTool := mcp.NewTool("permalink_encode", append([]mcp.ToolOption{
		mcp.WithDescription("Encode a source and its settings as a permalink fragment."),
		mcp.WithString("title", mcp.Required(), mcp.Description("File name shown for the source")),
	}, analysisOptions()...)...)
	s.mcpServer.AddTool(encodeTool, s.handlePermalinkEncode)

	// TOOL: permalink_decode
	s.mcpServer.AddTool(mcp.NewTool("permalink_decode",
		mcp.WithDescription("Decode a permalink fragment into its title, source and settings."),
		mcp.WithString("token", mcp.Required(), mcp.Description("Permalink fragment, with or without the leading #")),
	), s.handlePermalinkDecode)
}

func (s *Server) settings(args AnalysisArgs) (domain.AnalysisSettings, error) {
	out := s.defaults
	if args.Model != "" {
		m, err := domain.ParseModel(args.Model)
		if err != nil {
			return out, err
		}
		out.Model = m
	}
	if args.Rewrite != nil {
		out.Rewrite = *args.Rewrite
	}
	if args.Sequentialise != nil {
		out.Sequentialise = *args.Sequentialise
	}
	return out, nil
}

func (s *Server) call(ctx context.Context, action domain.Action, args AnalysisArgs) (domain.Response, error) {
	settings, err := s.settings(args)
	if err != nil {
		return nil, err
	}
	data, err := s.service.Do(ctx, domain.NewRequest(action, args.Source, settings, nil))
	if err != nil {
		s.logger.Error("MCP: request failed", "action", action.String(), "err", err)
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrRequestFailed, action, err)
	}
	return domain.DecodeResponse(action, data)
}

func (s *Server) handleElaborate(ctx context.Context, request mcp.CallToolRequest, args AnalysisArgs) (domain.ElaborationResult, error) {
	res, err := s.call(ctx, domain.Elaborate(), args)
	if err != nil {
		return domain.ElaborationResult{}, err
	}
	return *res.(*domain.ElaborationResult), nil
}

func (s *Server) handleExecute(ctx context.Context, request mcp.CallToolRequest, args ExecuteArgs) (domain.ExecutionResult, error) {
	mode := domain.ModeRandom
	if args.Mode != "" {
		m, err := domain.ParseExecutionMode(args.Mode)
		if err != nil {
			return domain.ExecutionResult{}, err
		}
		mode = m
	}
	res, err := s.call(ctx, domain.Execute(mode), args.AnalysisArgs)
	if err != nil {
		return domain.ExecutionResult{}, err
	}
	return *res.(*domain.ExecutionResult), nil
}

func (s *Server) handlePermalinkEncode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		AnalysisArgs
		Title string `json:"title"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	settings, err := s.settings(args.AnalysisArgs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	token, err := permalink.EncodeSnapshot(&domain.Snapshot{
		Title:    args.Title,
		Source:   args.Source,
		Settings: &settings,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText("#" + token), nil
}

func (s *Server) handlePermalinkDecode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, _ := request.GetArguments()["token"].(string)
	snap, err := permalink.Decode(token)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("decode failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(snap)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: cerberus://settings
	s.mcpServer.AddResource(mcp.NewResource("cerberus://settings", "Default Analysis Settings",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, _ := json.Marshal(s.defaults)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "cerberus://settings",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
