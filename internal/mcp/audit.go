package mcp

import (
	"fmt"
	"time"
)

// auditTool records a tool invocation in the event log and at debug level.
func (s *Server) auditTool(toolName string, start time.Time, err error, params map[string]any) {
	elapsed := time.Since(start)
	s.events.ToolCall(toolName, elapsed, err, params)

	status := "success"
	if err != nil {
		status = "error"
	}
	s.logger.Debug("MCP tool call", "tool", toolName, "status", status, "elapsed", elapsed)
}

// gidParams summarizes a gid list for the audit log.
func gidParams(gids []int64) string {
	switch len(gids) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%d", gids[0])
	}
	return fmt.Sprintf("%d gids", len(gids))
}
