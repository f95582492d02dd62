package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/louisbranch/dungeonkit/internal/dice"
	"github.com/louisbranch/dungeonkit/internal/platform/otel"
	"github.com/louisbranch/dungeonkit/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// serverName identifies this MCP server to clients.
const serverName = "dungeonkit"

// Journal is the persistent campaign state the tools read and write.
type Journal interface {
	domain.RollRecorder
	domain.RollLog
	domain.NoteJournal
	domain.CharacterJournal
	domain.EncounterJournal
}

// Deps holds the collaborators tool handlers are built from.
type Deps struct {
	// Source supplies every random number the tools use.
	Source dice.Source
	// Limits bounds notation accepted by the dice tools.
	Limits dice.Limits
	Journal Journal
	// Fetcher backs fetch_page. The tool is not registered when nil.
	Fetcher domain.PageFetcher
	// Locale selects the language of tool error messages.
	Locale string
}

func (d Deps) validate() error {
	if d.Source == nil {
		return errors.New("random source is required")
	}
	if d.Journal == nil {
		return errors.New("journal is required")
	}
	return nil
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
}

// New creates a configured MCP server with every tool and resource bound to deps.
func New(deps Deps) (*Server, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: otel.Version}, &mcp.ServerOptions{
		CompletionHandler:  completionHandler,
		SubscribeHandler:   resourceSubscribeHandler,
		UnsubscribeHandler: resourceUnsubscribeHandler,
	})

	resourceNotifier := func(ctx context.Context, uri string) {
		if strings.TrimSpace(uri) == "" {
			return
		}
		if ctx == nil {
			ctx = context.Background()
		}
		if err := mcpServer.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: uri}); err != nil {
			log.Printf("mcp resource updated notify failed: uri=%s err=%v", uri, err)
		}
	}

	adapter := mcpServerRegistrationAdapter{server: mcpServer, locale: deps.Locale}
	for _, module := range newMCPRegistrationModules(deps, resourceNotifier) {
		if err := module.register(adapter); err != nil {
			return nil, fmt.Errorf("register MCP module %q: %w", module.name, err)
		}
	}

	return &Server{mcpServer: mcpServer}, nil
}

// completionHandler completes the name argument of the table resource template.
// Every other reference completes to nothing.
func completionHandler(_ context.Context, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	values := []string{}
	if req != nil && req.Params != nil && req.Params.Ref != nil {
		ref := req.Params.Ref
		if ref.Type == "ref/resource" && ref.URI == domain.TableResourceURITemplate && req.Params.Argument.Name == domain.TableNameArgument {
			values = domain.CompleteTableNames(req.Params.Argument.Value)
		}
	}
	return &mcp.CompleteResult{
		Completion: mcp.CompletionResultDetails{
			Values: values,
			Total:  len(values),
		},
	}, nil
}

// resourceSubscribeHandler accepts resource subscriptions with a valid URI.
func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// resourceUnsubscribeHandler accepts resource unsubscriptions with a valid URI.
func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportSSE runs MCP over HTTP with server-sent events.
	TransportSSE TransportKind = "sse"
)

// ParseTransportKind validates a transport name.
func ParseTransportKind(value string) (TransportKind, error) {
	kind := TransportKind(strings.ToLower(strings.TrimSpace(value)))
	switch kind {
	case TransportStdio, TransportSSE:
		return kind, nil
	case "":
		return TransportSSE, nil
	default:
		return "", fmt.Errorf("transport %q is not supported", value)
	}
}

// Config configures how the MCP server is exposed.
type Config struct {
	Transport TransportKind
	// HTTPAddr is the listen address for the SSE transport.
	HTTPAddr string
	// AllowedHosts extends the loopback hosts accepted in Host and Origin headers.
	AllowedHosts []string
	// Extra routes served next to the SSE endpoint, keyed by path.
	Routes map[string]http.Handler
}

// Run serves the server on the configured transport and blocks until the
// context ends.
func Run(ctx context.Context, cfg Config, deps Deps) error {
	server, err := New(deps)
	if err != nil {
		return err
	}

	transport := cfg.Transport
	if transport == "" {
		transport = TransportSSE
	}
	switch transport {
	case TransportStdio:
		return server.serveWithTransport(ctx, &mcp.StdioTransport{})
	case TransportSSE:
		httpTransport := NewHTTPTransport(cfg.HTTPAddr, server, cfg.AllowedHosts)
		for path, handler := range cfg.Routes {
			httpTransport.Handle(path, handler)
		}
		return httpTransport.Start(ctx)
	default:
		return fmt.Errorf("transport %q is not supported", transport)
	}
}

// Connect attaches one client session over the provided transport.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	if s == nil || s.mcpServer == nil {
		return nil, fmt.Errorf("MCP server is not configured")
	}
	return s.mcpServer.Connect(ctx, transport, nil)
}

// serveWithTransport runs the server until the transport closes or ctx ends.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
