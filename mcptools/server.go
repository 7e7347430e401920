// Package mcptools exposes the two pipelines as Model Context Protocol tools,
// so an agent can read PDFs from the local disk through this backend.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"mindmap_backend/api"
	"mindmap_backend/core"
	"mindmap_backend/pipeline"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Tool names, matching the pipeline names.
const (
	ToolTopics  = pipeline.NamePDFToTopics
	ToolMindmap = pipeline.NameTopicToMindmap
)

// Config holds the input limits applied before a pipeline runs.
type Config struct {
	MaxFileSize    int64
	MaxTopicLength int
	Version        string
}

// Server registers the pipeline tools on an MCP server.
type Server struct {
	pipelines api.Pipelines
	config    Config
	logger    *zap.Logger
}

// New creates a Server. A nil logger disables logging.
func New(pipelines api.Pipelines, config Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = core.DefaultMaxFileSize
	}
	if config.MaxTopicLength <= 0 {
		config.MaxTopicLength = core.DefaultMaxTopicLength
	}
	return &Server{pipelines: pipelines, config: config, logger: logger}
}

// MCPServer builds the protocol server with both tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("mindmap_backend", s.config.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	srv.AddTool(mcp.NewTool(ToolTopics,
		mcp.WithDescription("Extract the text of a PDF and list its main topics (at most 10)."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of a PDF file on the server's disk"),
		),
	), s.handleTopics)

	srv.AddTool(mcp.NewTool(ToolMindmap,
		mcp.WithDescription("Build a hierarchical mind map of one topic of a PDF."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of a PDF file on the server's disk"),
		),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("Topic to map, usually one returned by "+ToolTopics),
		),
	), s.handleMindmap)

	return srv
}

// ServeStdio serves the tools on stdin and stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.MCPServer())
}

func (s *Server) handleTopics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := api.ValidateFile(path, s.config.MaxFileSize); err != nil {
		return s.toolError(ToolTopics, err), nil
	}

	ctx = pipeline.WithCorrelationID(ctx, uuid.NewString())
	result, err := s.pipelines.PDFToTopics(ctx, path)
	if err != nil {
		return s.toolError(ToolTopics, err), nil
	}
	if result.Topics == nil {
		result.Topics = []string{}
	}
	return jsonResult(result)
}

func (s *Server) handleMindmap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawTopic, err := req.RequireString("topic")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	topic, err := api.ValidateTopic(rawTopic, s.config.MaxTopicLength)
	if err != nil {
		return s.toolError(ToolMindmap, err), nil
	}
	if err := api.ValidateFile(path, s.config.MaxFileSize); err != nil {
		return s.toolError(ToolMindmap, err), nil
	}

	ctx = pipeline.WithCorrelationID(ctx, uuid.NewString())
	result, err := s.pipelines.TopicToMindmap(ctx, path, topic)
	if err != nil {
		return s.toolError(ToolMindmap, err), nil
	}
	return jsonResult(result)
}

// toolError reports err to the client as "<Kind>: <sanitized message>".
// Failures are tool results, not protocol errors.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	kind := core.KindOf(err)
	s.logger.Info("tool call failed",
		zap.String("tool", tool),
		zap.String("error_kind", kind.String()),
		zap.Error(err))
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", kind, api.SanitizeErrorMessage(err.Error())))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
