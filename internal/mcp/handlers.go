// ABOUTME: MCP tool handler implementations for the retail query server
// ABOUTME: Tool failures are reported as tool errors, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/retail-nlp/internal/models"
	"github.com/harper/retail-nlp/internal/pipeline"
	"github.com/harper/retail-nlp/internal/storage/sqlite"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	orchestrator *pipeline.Orchestrator
	store        *sqlite.Storage
	logger       *log.Logger
}

// AskRetailQuestion handles the ask_retail_question tool
func (h *Handlers) AskRetailQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	role, err := models.ParseUserRole(request.GetString("user_role", string(models.RoleAnalyst)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	q := models.NewQuery(text, role)
	if raw := request.GetString("conversation_id", ""); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid conversation_id: %v", err)), nil
		}
		q.ConversationID = id
	}
	if hint := request.GetString("intent_hint", ""); hint != "" {
		q.IntentHint = models.Intent(hint)
	}

	out, err := h.orchestrator.Process(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"request_id":      out.RequestID,
		"conversation_id": q.ConversationID,
		"intent":          out.Result.Intent,
		"slots":           out.Result.Slots,
		"routed_endpoint": out.Result.RoutedEndpoint,
		"response_text":   out.Result.ResponseText,
		"confidence":      out.Result.Confidence,
		"sources":         out.Result.Sources,
		"blocked":         out.Result.Blocked,
		"block_reason":    out.Result.BlockReason,
		"cached":          out.Cached,
		"latency_ms":      out.Latency.Milliseconds(),
	})
}

// SubmitFeedback handles the submit_feedback tool
func (h *Handlers) SubmitFeedback(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawID, err := request.RequireString("query_id")
	if err != nil {
		return mcp.NewToolResultError("query_id argument is required and must be a string"), nil
	}
	queryID, err := uuid.Parse(rawID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid query_id: %v", err)), nil
	}
	rating, err := request.RequireFloat("rating")
	if err != nil {
		return mcp.NewToolResultError("rating argument is required and must be a number"), nil
	}

	fb := &models.Feedback{
		QueryID: queryID,
		Rating:  int(rating),
		Comment: request.GetString("comment", ""),
	}
	if float64(fb.Rating) != rating {
		return mcp.NewToolResultError("rating must be a whole number from 1 to 5"), nil
	}

	if err := h.store.Feedback.Save(ctx, fb); err != nil {
		if errors.Is(err, models.ErrInvalidFeedback) || errors.Is(err, sqlite.ErrUnknownQuery) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		h.logger.Error("failed to save feedback", "query_id", queryID, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to save feedback: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"success":     true,
		"feedback_id": fb.ID,
	})
}

// RecentQueries handles the recent_queries tool
func (h *Handlers) RecentQueries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	var (
		records []models.QueryLogRecord
		err     error
	)
	if raw := request.GetString("conversation_id", ""); raw != "" {
		id, perr := uuid.Parse(raw)
		if perr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid conversation_id: %v", perr)), nil
		}
		records, err = h.store.Logs.ListByConversation(ctx, id)
		if len(records) > limit {
			records = records[len(records)-limit:]
		}
		slices.Reverse(records)
	} else {
		records, err = h.store.Logs.ListRecent(ctx, limit)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list queries: %v", err)), nil
	}

	queries := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		queries = append(queries, map[string]interface{}{
			"request_id":      rec.ID,
			"conversation_id": rec.ConversationID,
			"query_text":      rec.QueryText,
			"intent":          rec.Result.Intent,
			"response_text":   rec.Result.ResponseText,
			"blocked":         rec.Result.Blocked,
			"cached":          rec.Cached,
			"created_at":      rec.CreatedAt.Format(time.RFC3339),
		})
	}

	return jsonResult(map[string]interface{}{
		"queries": queries,
	})
}

// IndexStatus handles the index_status tool
func (h *Handlers) IndexStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	meta, err := h.store.Index.Meta(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read index metadata: %v", err)), nil
	}
	count, err := h.store.Index.Count(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to count index documents: %v", err)), nil
	}

	response := map[string]interface{}{
		"documents": count,
	}
	if meta != nil {
		response["provider"] = meta.Provider
		response["dimension"] = meta.Dimension
		response["built_at"] = meta.BuiltAt.Format(time.RFC3339)
	}
	return jsonResult(response)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
