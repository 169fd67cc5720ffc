package mcpserver

import (
	"context"
	"errors"
	"strings"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/rag"
	"github.com/akolanti/GoRAG/internal/rag/report"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "page-index-rag"

type QueryInput struct {
	Question string `json:"question" jsonschema:"the question to look up in the indexed documents"`
	K        int    `json:"k,omitempty" jsonschema:"number of chunks to retrieve (default is the configured top-k)"`
}

type RetrieveOutput struct {
	Context string            `json:"context"`
	Sources []jobModel.Source `json:"sources"`
	Report  string            `json:"report"`
}

type AskOutput struct {
	Answer  string            `json:"answer"`
	Cached  bool              `json:"cached"`
	Sources []jobModel.Source `json:"sources"`
}

// Server exposes the page index to MCP clients as two tools. retrieve
// returns ranked chunks, ask also runs generation.
type Server struct {
	ragService rag.Service
	server     *mcp.Server
	logger     *logger_i.Logger
}

func New(ragService rag.Service, version string) *Server {
	s := &Server{
		ragService: ragService,
		server:     mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil),
		logger:     logger_i.NewLogger("MCP Server"),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Search the local document index and return the nearest chunks with their page references.",
	}, s.retrieve)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the local document index using the configured language model.",
	}, s.ask)
	return s
}

// Run serves over stdin and stdout until ctx is done or the client hangs up.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Serving MCP over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func (s *Server) retrieve(ctx context.Context, req *mcp.CallToolRequest, in QueryInput) (*mcp.CallToolResult, RetrieveOutput, error) {
	if in.Question == "" {
		return nil, RetrieveOutput{}, errors.New("question is required")
	}
	ctx = context.WithValue(ctx, config.TRACE_ID_KEY, "mcp")
	res, err := s.ragService.Search(ctx, in.Question, in.K)
	if err != nil {
		s.logger.WithTrace(ctx).Error("retrieve failed", "error", err)
		return nil, RetrieveOutput{}, err
	}
	var table strings.Builder
	if err := report.WritePageTable(&table, res.Sources); err != nil {
		return nil, RetrieveOutput{}, err
	}
	return nil, RetrieveOutput{
		Context: res.Context,
		Sources: res.Sources,
		Report:  table.String(),
	}, nil
}

func (s *Server) ask(ctx context.Context, req *mcp.CallToolRequest, in QueryInput) (*mcp.CallToolResult, AskOutput, error) {
	if in.Question == "" {
		return nil, AskOutput{}, errors.New("question is required")
	}
	ctx = context.WithValue(ctx, config.TRACE_ID_KEY, "mcp")
	res, err := s.ragService.Ask(ctx, in.Question, in.K)
	if err != nil {
		s.logger.WithTrace(ctx).Error("ask failed", "error", err, "reason", rag.Reason(err))
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{Answer: res.Answer, Cached: res.Cached, Sources: res.Sources}, nil
}
