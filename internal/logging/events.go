package logging

import "time"

// Run-event names written to the event log.
const (
	EventRunStarted    = "run_started"
	EventRunFailed     = "run_failed"
	EventRunFinished   = "run_finished"
	EventSplitStarted  = "split_started"
	EventSplitFailed   = "split_failed"
	EventSplitFinished = "split_finished"
	EventToolCall      = "tool_call"
)

// RunStarted records the start of an extraction run.
func (el *EventLogger) RunStarted(runID, circuit, target string) {
	el.Log(map[string]any{"event": EventRunStarted, "run_id": runID, "circuit": circuit, "target": target})
}

// RunFailed records a run that ended with err.
func (el *EventLogger) RunFailed(runID string, err error) {
	el.Log(map[string]any{"event": EventRunFailed, "run_id": runID, "error": errString(err)})
}

// RunFinished records a run whose table of cells rows was saved to path.
func (el *EventLogger) RunFinished(runID string, cells int, elapsed time.Duration, path string) {
	el.Log(map[string]any{
		"event":      EventRunFinished,
		"run_id":     runID,
		"cells":      cells,
		"elapsed_ms": elapsed.Milliseconds(),
		"path":       path,
	})
}

// SplitStarted records that a worker picked up a data split.
func (el *EventLogger) SplitStarted(split, cells int) {
	el.Log(map[string]any{"event": EventSplitStarted, "split": split, "cells": cells})
}

// SplitFailed records a data split that ended with err.
func (el *EventLogger) SplitFailed(split int, err error) {
	el.Log(map[string]any{"event": EventSplitFailed, "split": split, "error": errString(err)})
}

// SplitFinished records a completed data split.
func (el *EventLogger) SplitFinished(split, cells int, elapsed time.Duration) {
	el.Log(map[string]any{
		"event":      EventSplitFinished,
		"split":      split,
		"cells":      cells,
		"elapsed_ms": elapsed.Milliseconds(),
	})
}

// ToolCall records an MCP tool invocation. Params should hold metadata only
// (counts, column names), never whole rows.
func (el *EventLogger) ToolCall(tool string, elapsed time.Duration, err error, params map[string]any) {
	entry := map[string]any{
		"event":       EventToolCall,
		"tool":        tool,
		"duration_ms": elapsed.Milliseconds(),
		"status":      "success",
	}
	if err != nil {
		entry["status"] = "error"
		entry["error"] = err.Error()
	}
	if len(params) > 0 {
		entry["params"] = params
	}
	el.Log(entry)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
