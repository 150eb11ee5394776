// Package resources implements MCP resource handlers for the progression
// engine.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (progression://...) following MCP
// conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aaltino/hubempresas-sub001/internal/rules"
)

// CatalogURI addresses the loaded rule catalog.
const CatalogURI = "progression://rules/catalog"

// CatalogViewer exposes the serializable view of a rule catalog.
type CatalogViewer interface {
	View() rules.View
}

// Handler manages progression resource endpoints.
type Handler struct {
	catalog CatalogViewer
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(catalog CatalogViewer) *Handler {
	return &Handler{catalog: catalog}
}

// CatalogResource returns the MCP resource definition for the rule catalog.
func (h *Handler) CatalogResource() mcp.Resource {
	return mcp.NewResource(
		CatalogURI,
		"Progression Rule Catalog",
		mcp.WithResourceDescription("Stages, questionnaire templates, programs with their gates, and badge definitions"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleCatalog returns the rule catalog as JSON.
func (h *Handler) HandleCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if h.catalog == nil {
		return errorResource(req.Params.URI, "no rule catalog loaded"), nil
	}

	data, err := json.MarshalIndent(h.catalog.View(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling catalog: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
