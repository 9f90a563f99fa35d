package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) planCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	plans, err := h.ds.ListPlans(ctx, uid)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, plans)
}

func (h *handlers) recentWorkoutLogs(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	end := time.Now()
	start := end.AddDate(0, 0, -14)

	logs, err := h.ds.QueryWorkoutLogs(ctx, uid, start, end, 100)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, logs)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
