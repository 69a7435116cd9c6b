// Package mcp exposes the task store and the intent router as MCP tools.
//
// Tools: add_task, list_tasks, complete_task, delete_task and route_text.
// Tool failures carry the same messages as the HTTP error envelope. The
// server runs over stdio or mounts as a streamable HTTP handler.
package mcp
