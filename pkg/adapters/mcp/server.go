package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/cyrkana"
	"github.com/aretw0/cyrkana/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ProfilesURI is the resource that lists the registered profiles.
const ProfilesURI = "cyrkana://profiles"

// KeyArgs are the arguments of the process_key tool.
type KeyArgs struct {
	Key       string `json:"key"`
	Buffer    string `json:"buffer"`
	ProfileID string `json:"profile_id"`
}

// TransliterateArgs are the arguments of the transliterate tool.
type TransliterateArgs struct {
	Text      string `json:"text"`
	ProfileID string `json:"profile_id"`
}

// SchemaArgs are the arguments of the load_schema tool.
type SchemaArgs struct {
	SchemaID string `json:"schema_id"`
	Schema   string `json:"schema"`
}

// ProfileArgs are the arguments of the activate_profile tool.
type ProfileArgs struct {
	ProfileID string `json:"profile_id"`
}

// LoadResult reports a successful load_schema call.
type LoadResult struct {
	SchemaID string `json:"schema_id" jsonschema_description:"The schema that was stored"`
	Loaded   bool   `json:"loaded"`
}

// Engine defines the operations the MCP server exposes.
type Engine interface {
	LoadSchema(ctx context.Context, schemaID string, schemaJSON []byte) error
	ProcessKey(ctx context.Context, key, buffer, profileID string) (domain.Outcome, error)
	Profiles() ([]domain.Profile, error)
	Activate(ctx context.Context, profileID string) (domain.Profile, error)
	Transliterate(ctx context.Context, profileID, text string) (*cyrkana.Transcript, error)
}

// Server wraps the engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server logger. Stdio servers must not log to stdout.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server for engine.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		mcpServer: server.NewMCPServer("cyrkana-mcp", cyrkana.Version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, mostly for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on port until ctx is cancelled.
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
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
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

func (s *Server) registerTools() {
	keyTool := mcp.NewTool("process_key",
		mcp.WithDescription("Feed one Cyrillic key to the conversion state machine. The caller keeps the composition buffer and passes it back on the next call."),
		mcp.WithString("key", mcp.Required(), mcp.Description("The key that was pressed, e.g. \"А\"")),
		mcp.WithString("buffer", mcp.Description("The pending composition returned by the previous call")),
		mcp.WithString("profile_id", mcp.Description("Language profile id (default rus_standard)")),
		mcp.WithOutputSchema[domain.Outcome](),
	)
	s.mcpServer.AddTool(keyTool, mcp.NewStructuredToolHandler(s.handleProcessKey))

	textTool := mcp.NewTool("transliterate",
		mcp.WithDescription("Type a whole text with a profile and return the kana output with every keystroke."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Cyrillic text")),
		mcp.WithString("profile_id", mcp.Description("Language profile id (default rus_standard)")),
		mcp.WithOutputSchema[cyrkana.Transcript](),
	)
	s.mcpServer.AddTool(textTool, mcp.NewStructuredToolHandler(s.handleTransliterate))

	loadTool := mcp.NewTool("load_schema",
		mcp.WithDescription("Load or fully replace an input schema."),
		mcp.WithString("schema_id", mcp.Required(), mcp.Description("Schema id, e.g. schema_rus_v1")),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Schema JSON: {\"<sequence>\": {\"kana_key\": \"<key>\"}}")),
		mcp.WithOutputSchema[LoadResult](),
	)
	s.mcpServer.AddTool(loadTool, mcp.NewStructuredToolHandler(s.handleLoadSchema))

	activateTool := mcp.NewTool("activate_profile",
		mcp.WithDescription("Make a profile ready for typing, loading its schema from the pack source if needed."),
		mcp.WithString("profile_id", mcp.Required(), mcp.Description("Language profile id")),
		mcp.WithOutputSchema[domain.Profile](),
	)
	s.mcpServer.AddTool(activateTool, mcp.NewStructuredToolHandler(s.handleActivate))

	s.mcpServer.AddTool(mcp.NewTool("get_profiles",
		mcp.WithDescription("List the registered language profiles."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := s.profilesJSON()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("profiles failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func profileOrDefault(id string) string {
	if id == "" {
		return cyrkana.DefaultProfileID
	}
	return id
}

func (s *Server) handleProcessKey(ctx context.Context, request mcp.CallToolRequest, args KeyArgs) (domain.Outcome, error) {
	profileID := profileOrDefault(args.ProfileID)

	out, err := s.engine.ProcessKey(ctx, args.Key, args.Buffer, profileID)
	if errors.Is(err, domain.ErrSchemaNotLoaded) {
		// Behave like a keyboard host switching to the profile.
		if _, aerr := s.engine.Activate(ctx, profileID); aerr == nil {
			out, err = s.engine.ProcessKey(ctx, args.Key, args.Buffer, profileID)
		}
	}
	if err != nil {
		s.logger.Warn("MCP process_key rejected", "profile_id", profileID, "err", err)
		return domain.Outcome{}, fmt.Errorf("process key failed: %w", err)
	}
	return out, nil
}

func (s *Server) handleTransliterate(ctx context.Context, request mcp.CallToolRequest, args TransliterateArgs) (cyrkana.Transcript, error) {
	profileID := profileOrDefault(args.ProfileID)

	if _, err := s.engine.Activate(ctx, profileID); err != nil {
		return cyrkana.Transcript{}, fmt.Errorf("activate failed: %w", err)
	}
	tr, err := s.engine.Transliterate(ctx, profileID, args.Text)
	if err != nil {
		return cyrkana.Transcript{}, fmt.Errorf("transliterate failed: %w", err)
	}
	return *tr, nil
}

func (s *Server) handleLoadSchema(ctx context.Context, request mcp.CallToolRequest, args SchemaArgs) (LoadResult, error) {
	if args.SchemaID == "" {
		return LoadResult{}, errors.New("schema_id is required")
	}
	if err := s.engine.LoadSchema(ctx, args.SchemaID, []byte(args.Schema)); err != nil {
		return LoadResult{}, fmt.Errorf("load schema failed: %w", err)
	}
	s.logger.Info("MCP schema loaded", "schema_id", args.SchemaID)
	return LoadResult{SchemaID: args.SchemaID, Loaded: true}, nil
}

func (s *Server) handleActivate(ctx context.Context, request mcp.CallToolRequest, args ProfileArgs) (domain.Profile, error) {
	prof, err := s.engine.Activate(ctx, args.ProfileID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("activate failed: %w", err)
	}
	return prof, nil
}

func (s *Server) profilesJSON() ([]byte, error) {
	profiles, err := s.engine.Profiles()
	if err != nil {
		return nil, err
	}
	return json.Marshal(profiles)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ProfilesURI, "Language Profiles",
		mcp.WithResourceDescription("Profiles registered at initialization"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := s.profilesJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to list profiles: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ProfilesURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
