package service

import (
	"context"
	"log"
	"time"

	"github.com/louisbranch/dungeonkit/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/dungeonkit/internal/services/mcp"

// instrumentTool runs handler inside a span and turns its errors into
// localized client messages.
func instrumentTool[I any, O any](toolName, locale string, handler mcp.ToolHandlerFor[I, O]) mcp.ToolHandlerFor[I, O] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input I) (*mcp.CallToolResult, O, error) {
		ctx, span := otel.Tracer(tracerName).Start(ctx, "mcp.tool/"+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool.name", toolName)),
		)
		defer span.End()

		started := time.Now()
		result, output, err := handler(ctx, req, input)
		elapsed := time.Since(started)
		if err != nil {
			code := domain.ErrorCode(err)
			err = domain.LocalizeError(err, locale)
			span.SetAttributes(
				attribute.String("mcp.tool.error_code", string(code)),
				attribute.Bool("mcp.tool.invalid_input", code.IsInvalidInput()),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, string(code))
			log.Printf("tool %s failed after %s: code=%s err=%v", toolName, elapsed, code, err)
			var zero O
			return nil, zero, err
		}
		span.SetStatus(codes.Ok, "")
		log.Printf("tool %s completed in %s", toolName, elapsed)
		return result, output, nil
	}
}

// instrumentResource runs a resource read inside a span.
func instrumentResource(name string, handler mcp.ResourceHandler) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		ctx, span := otel.Tracer(tracerName).Start(ctx, "mcp.resource/"+name,
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()
		if req != nil && req.Params != nil {
			span.SetAttributes(attribute.String("mcp.resource.uri", req.Params.URI))
		}

		result, err := handler(ctx, req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		return result, nil
	}
}
