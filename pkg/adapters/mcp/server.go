package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/pipeline"
)

// ActionsURI is the resource listing every exposed action.
const ActionsURI = "lattice://actions"

// Server exposes actions as MCP tools, one tool per named action.
type Server struct {
	actions   map[string]*pipeline.Action
	tools     []mcp.Tool
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(actions []*pipeline.Action, opts ...Option) *Server {
	s := &Server{
		actions:   make(map[string]*pipeline.Action, len(actions)),
		logger:    slog.Default(),
		mcpServer: server.NewMCPServer("lattice-mcp", strings.TrimSpace(lattice.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, a := range actions {
		if a.Name() == "" {
			s.logger.Warn("Skipping unnamed action")
			continue
		}
		s.registerTool(a)
	}
	s.registerResources()
	return s
}

// ToolName maps an action name onto the MCP tool namespace.
func ToolName(action string) string {
	return strings.ReplaceAll(action, ".", "_")
}

// Tools lists the registered tools, sorted by name.
func (s *Server) Tools() []mcp.Tool {
	tools := append([]mcp.Tool(nil), s.tools...)
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it
// gracefully once ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTool(a *pipeline.Action) {
	desc := a.Describe()
	name := ToolName(a.Name())

	text := fmt.Sprintf("Invoke the %s action.", a.Name())
	if len(desc.Inputs) > 0 {
		text += " Input must satisfy: " + strings.Join(desc.Inputs, ", ") + "."
	}

	opts := []mcp.ToolOption{
		mcp.WithDescription(text),
		mcp.WithString("input", mcp.Description("JSON document passed as the action input")),
	}
	if groups := a.BindGroups(); groups > 0 {
		opts = append(opts, mcp.WithString("binds",
			mcp.Required(),
			mcp.Description(fmt.Sprintf("JSON array with the %d positional bind argument(s)", groups)),
		))
	}

	tool := mcp.NewTool(name, opts...)
	s.actions[name] = a
	s.tools = append(s.tools, tool)
	s.mcpServer.AddTool(tool, s.handle(a))
}

// handle adapts an action into a tool handler. Pipeline failures are
// reported as error results carrying the serialized failure; signals have no
// meaning over MCP and are reported as plain tool errors.
func (s *Server) handle(a *pipeline.Action) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := toolArguments(a.BindGroups(), request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, err := a.Invoke(ctx, args...)
		if err != nil {
			s.logger.Info("MCP tool signalled host", "tool", request.Params.Name, "signal", err)
			return mcp.NewToolResultError(fmt.Sprintf("action signalled host: %v", err)), nil
		}

		body, err := json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("encode response: %w", err)
		}
		result := mcp.NewToolResultText(string(body))
		result.IsError = !res.OK
		return result, nil
	}
}

// toolArguments turns the raw tool arguments into action arguments.
func toolArguments(groups int, raw map[string]any) ([]any, error) {
	input, err := decodeArgument(raw["input"])
	if err != nil {
		return nil, fmt.Errorf("%w: input: %v", domain.ErrInvalidArguments, err)
	}
	if groups == 0 {
		return []any{input}, nil
	}

	decoded, err := decodeArgument(raw["binds"])
	if err != nil {
		return nil, fmt.Errorf("%w: binds: %v", domain.ErrInvalidArguments, err)
	}
	var binds []any
	switch b := decoded.(type) {
	case nil:
	case []any:
		binds = b
	default:
		return nil, fmt.Errorf("%w: binds must be an array", domain.ErrInvalidArguments)
	}

	args := make([]any, groups, groups+1)
	copy(args, binds)
	return append(args, input), nil
}

// decodeArgument accepts either a JSON document in a string or an already
// structured value.
func decodeArgument(v any) (any, error) {
	str, ok := v.(string)
	if !ok {
		return v, nil
	}
	if strings.TrimSpace(str) == "" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(str)))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ActionsURI, "Exposed Actions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		body, err := json.Marshal(s.Descriptions())
		if err != nil {
			return nil, fmt.Errorf("failed to describe actions: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ActionsURI,
				MIMEType: "application/json",
				Text:     string(body),
			},
		}, nil
	})
}

// Descriptions lists the exposed actions, sorted by name.
func (s *Server) Descriptions() []pipeline.Description {
	out := make([]pipeline.Description, 0, len(s.actions))
	for _, a := range s.actions {
		out = append(out, a.Describe())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
