// ABOUTME: MCP tool definitions and registration for the retail query server
// ABOUTME: Exposes question answering, feedback and query log inspection over MCP
package mcp

import (
	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/retail-nlp/internal/logging"
	"github.com/harper/retail-nlp/internal/pipeline"
	"github.com/harper/retail-nlp/internal/storage/sqlite"
)

// NewServer creates an MCP server with every retail tool registered
func NewServer(name, version string, orch *pipeline.Orchestrator, store *sqlite.Storage, logger *log.Logger) (*mcpserver.MCPServer, *Handlers) {
	server := mcpserver.NewMCPServer(name, version, mcpserver.WithToolCapabilities(false))
	return server, RegisterTools(server, orch, store, logger)
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, orch *pipeline.Orchestrator, store *sqlite.Storage, logger *log.Logger) *Handlers {
	handlers := &Handlers{
		orchestrator: orch,
		store:        store,
		logger:       logging.Component(logger, "mcp"),
	}

	// 1. ask_retail_question - run a question through the pipeline
	server.AddTool(mcp.Tool{
		Name:        "ask_retail_question",
		Description: "Answer a retail analytics question about KPIs, branch status, tasks, events or promotions. Returns the intent, extracted slots, routed backend endpoint, a guarded answer and its sources.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The question, e.g. 'How busy was branch A yesterday?'",
				},
				"conversation_id": map[string]interface{}{
					"type":        "string",
					"description": "Optional conversation UUID; a new one is assigned when omitted",
				},
				"user_role": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"manager", "analyst", "staff"},
					"description": "Role of the asking user (default: analyst)",
					"default":     "analyst",
				},
				"intent_hint": map[string]interface{}{
					"type":        "string",
					"description": "Optional intent hint; only affects response caching",
				},
			},
			Required: []string{"query"},
		},
	}, handlers.AskRetailQuestion)

	// 2. submit_feedback - rate a previous answer
	server.AddTool(mcp.Tool{
		Name:        "submit_feedback",
		Description: "Rate a previous answer from 1 to 5 with an optional comment.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query_id": map[string]interface{}{
					"type":        "string",
					"description": "request_id returned by ask_retail_question",
				},
				"rating": map[string]interface{}{
					"type":        "number",
					"description": "Rating from 1 (poor) to 5 (excellent)",
					"minimum":     1,
					"maximum":     5,
				},
				"comment": map[string]interface{}{
					"type":        "string",
					"description": "Optional comment, at most 1000 characters",
				},
			},
			Required: []string{"query_id", "rating"},
		},
	}, handlers.SubmitFeedback)

	// 3. recent_queries - inspect the query log
	server.AddTool(mcp.Tool{
		Name:        "recent_queries",
		Description: "List recently answered questions, newest first, optionally for one conversation.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of queries to return (default: 10)",
					"default":     10,
				},
				"conversation_id": map[string]interface{}{
					"type":        "string",
					"description": "Only list queries from this conversation",
				},
			},
		},
	}, handlers.RecentQueries)

	// 4. index_status - describe the retrieval index
	server.AddTool(mcp.Tool{
		Name:        "index_status",
		Description: "Report the retrieval index size, embedding provider and build time.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.IndexStatus)

	return handlers
}
