// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Tend tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marloe/tend/internal/contactservice"
	"github.com/marloe/tend/internal/domain"
	"github.com/marloe/tend/internal/template"
	"github.com/marloe/tend/internal/temporal"
)

// Server wraps the MCP server with Tend tools.
type Server struct {
	mcp      *server.MCPServer
	svc      *contactservice.Service
	registry *template.Registry
}

// New creates a new MCP server with all Tend tools registered.
func New(svc *contactservice.Service, registry *template.Registry) *Server {
	s := &Server{svc: svc, registry: registry}

	s.mcp = server.NewMCPServer(
		"Tend",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_contacts",
		mcp.WithDescription("List all contacts with their tags and how many tags are currently due for contact."),
	), s.listContacts)

	s.mcp.AddTool(mcp.NewTool("get_contact",
		mcp.WithDescription("Read one contact: names, attributes, briefing, tags, and last-contact timestamp."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Contact ID")),
	), s.getContact)

	s.mcp.AddTool(mcp.NewTool("create_contact",
		mcp.WithDescription("Create a contact. Attributes MUST follow the published attribute template; "+
			"read it first via the get_usage_contract tool or the tend://attribute-template resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Full display name")),
		mcp.WithString("first_name", mcp.Description("Optional informal first name")),
		mcp.WithObject("attributes", mcp.Description("Optional sparse attribute payload (category -> field -> value)")),
	), s.createContact)

	s.mcp.AddTool(mcp.NewTool("add_note",
		mcp.WithDescription("Record a content note for a contact. Inline #tags in the content are attached automatically."),
		mcp.WithString("contact_id", mcp.Required(), mcp.Description("Contact ID")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note text")),
	), s.addNote)

	s.mcp.AddTool(mcp.NewTool("record_interaction",
		mcp.WithDescription("Record that contact happened on a given date, advancing last-contact timestamps. "+
			"The date MUST be RFC 3339 with an explicit UTC offset (e.g. 2025-06-01T18:30:00+02:00). "+
			"Backfilling older interactions is safe: timestamps never move backwards."),
		mcp.WithString("contact_id", mcp.Required(), mcp.Description("Contact ID")),
		mcp.WithString("date", mcp.Required(), mcp.Description("Interaction date, RFC 3339 with UTC offset")),
		mcp.WithString("content", mcp.Description("Optional note text describing the interaction")),
	), s.recordInteraction)

	s.mcp.AddTool(mcp.NewTool("set_tag_frequency",
		mcp.WithDescription("Enable staleness tracking for one contact tag. Omit frequency_days to disable tracking."),
		mcp.WithString("contact_id", mcp.Required(), mcp.Description("Contact ID")),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag name, e.g. #mentor")),
		mcp.WithNumber("frequency_days", mcp.Description("Desired contact frequency in days (1-365)")),
	), s.setTagFrequency)

	s.mcp.AddTool(mcp.NewTool("due_report",
		mcp.WithDescription("All contact-tag pairs that are overdue for contact, most urgent first."),
	), s.dueReport)

	s.mcp.AddTool(mcp.NewTool("get_usage_contract",
		mcp.WithDescription("Returns the canonical Tend usage contract: tag format, date rules, and "+
			"attribute payload structure. Call this before creating contacts or recording interactions."),
	), s.getUsageContract)

	// Resource: the latest attribute template version.
	s.mcp.AddResource(
		mcp.NewResource("tend://attribute-template", "Attribute Template",
			mcp.WithResourceDescription("Latest published attribute template version governing contact attributes."),
			mcp.WithMIMEType("application/json"),
		),
		s.readTemplateResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func toolJSON(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listContacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListContacts(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolJSON(items), nil
}

func (s *Server) getContact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.svc.GetContact(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolJSON(c), nil
}

func (s *Server) createContact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	firstName := req.GetString("first_name", "")

	var attrs domain.Attributes
	if raw, ok := req.GetArguments()["attributes"].(map[string]any); ok {
		attrs = make(domain.Attributes, len(raw))
		for cat, fields := range raw {
			fm, ok := fields.(map[string]any)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("attributes.%s: expected an object of fields", cat)), nil
			}
			attrs[cat] = fm
		}
	}

	c, err := s.svc.CreateContact(ctx, name, firstName, attrs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolJSON(c), nil
}

func (s *Server) addNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contactID, err := req.RequireString("contact_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.CreateContentNote(ctx, contactID, content, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolJSON(n), nil
}

func (s *Server) recordInteraction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contactID, err := req.RequireString("contact_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawDate, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := temporal.Parse(rawDate)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content := req.GetString("content", "")

	c, err := s.svc.RecordInteraction(ctx, contactID, date, content, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolJSON(c), nil
}

func (s *Server) setTagFrequency(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contactID, err := req.RequireString("contact_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var days *int
	if _, ok := req.GetArguments()["frequency_days"]; ok {
		d := req.GetInt("frequency_days", 0)
		days = &d
	}
	c, err := s.svc.SetTagFrequency(ctx, contactID, tag, days)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolJSON(c), nil
}

func (s *Server) dueReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.svc.DueReport(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("nobody is due for contact"), nil
	}
	return toolJSON(entries), nil
}

func (s *Server) getUsageContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(UsageContract), nil
}

func (s *Server) readTemplateResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	v, err := s.registry.Latest()
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "tend://attribute-template",
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}
