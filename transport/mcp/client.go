package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/controlrelay/classroom"
)

// Client is a thin MCP client that proxies to the relay's REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API at baseURL
func NewClient(baseURL, version string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer(version)
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer(version string) {
	c.mcpServer = server.NewMCPServer(
		"Classroom Control Relay",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Classroom Control Relay - MCP Interface

This is a thin client that proxies all requests to the relay's REST API.

One teacher observes a shared game while students take turns driving it.
Exactly one student at a time may hold the control token; only that
student's game actions reach the teachers.

AVAILABLE TOOLS:
- classroom_roster: List connected students, who holds control, and how many teachers are watching
- grant_control: Give the control token to a student (revokes the current holder first)
- revoke_control: Take the control token back
- relay_health: Check that the relay is up

Use classroom_roster first to find student ids.`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "classroom_roster",
		Description: "List connected students with their control status",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleRoster)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "grant_control",
		Description: "Grant the control token to a student, revoking the current controller",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"target_id": map[string]interface{}{
					"type":        "string",
					"description": "Participant id of the student (from classroom_roster)",
				},
			},
			Required: []string{"target_id"},
		},
	}, c.handleGrantControl)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "revoke_control",
		Description: "Revoke the control token from whoever holds it",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleRevokeControl)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "relay_health",
		Description: "Check that the relay is reachable",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleHealth)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// ServeHTTP answers a single JSON-RPC message per POST request.
func (c *Client) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	response := c.mcpServer.HandleMessage(r.Context(), body)

	w.Header().Set("Content-Type", "application/json")
	responseData, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Write(responseData)
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleRoster(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var roster classroom.Roster
	if err := c.apiCall(ctx, "GET", "/api/roster", nil, &roster); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoster(&roster)), nil
}

func (c *Client) handleGrantControl(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	targetID, _ := args["target_id"].(string)
	if targetID == "" {
		return mcp.NewToolResultError("target_id is required"), nil
	}

	body := map[string]string{"targetId": targetID}
	if err := c.apiCall(ctx, "POST", "/api/control", body, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Control granted to %s", targetID)), nil
}

func (c *Client) handleRevokeControl(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Revoked bool `json:"revoked"`
	}
	if err := c.apiCall(ctx, "DELETE", "/api/control", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !response.Revoked {
		return mcp.NewToolResultText("No student held control"), nil
	}
	return mcp.NewToolResultText("Control revoked"), nil
}

func (c *Client) handleHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response map[string]string
	if err := c.apiCall(ctx, "GET", "/api/health", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Relay status: %s", response["status"])), nil
}

func formatRoster(roster *classroom.Roster) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Teachers watching: %d\n", roster.TeacherCount)
	if roster.ActiveControllerID != "" {
		fmt.Fprintf(&b, "Controller: %s\n", roster.ActiveControllerID)
	} else {
		b.WriteString("Controller: none\n")
	}

	fmt.Fprintf(&b, "\nStudents (%d):\n", len(roster.Students))
	if len(roster.Students) == 0 {
		b.WriteString("  (none connected)\n")
	}
	for _, s := range roster.Students {
		marker := " "
		if s.IsActive {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s  %s\n", marker, s.ID, s.Name)
	}

	return b.String()
}
