// Package mcp provides a Model Context Protocol server for the control relay.
//
// The mcp package implements:
//   - MCP server for AI agent and operator tooling
//   - Tool definitions for classroom operations
//   - Stdio and HTTP transport modes
//
// MCP Tools:
//   - classroom_roster: List students, control holder and teacher count
//   - grant_control: Hand the control token to a student
//   - revoke_control: Take the token back
//   - relay_health: Liveness check
//
// Every tool is a thin proxy over the REST API in package api, so the MCP
// server can run inside the relay (mounted at /mcp) or as a separate stdio
// process pointed at a remote relay.
//
// Usage:
//
//	// Stdio mode
//	client := mcp.NewClient("http://localhost:3000", version)
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode
//	apiServer.Handle("/mcp", client)
package mcp
