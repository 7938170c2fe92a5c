// Package server implements the MCP (Model Context Protocol) server for
// interactive image annotation.
//
// The server exposes a brush-and-eraser annotation editor as MCP tools. A
// client opens an image, paints strokes, and commits them into polygon
// annotations; eraser strokes cut, split, or remove committed polygons.
// Detectors and external models can queue suggestions that a reviewer
// accepts or rejects.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Notifications
//
// Every tool call that changes a slice's annotations is followed by a
// notifications/annotations/changed message carrying the slice key and the
// inserted, updated, and removed records. Paint commits that found no active
// class report dropped: true in their result instead. paint_discard and
// erase_discard leave the store alone and are followed by a
// notifications/annotations/repaint message so clients redraw the slice.
//
// # Tools
//
// Image and classes: image_open, class_add, class_select, class_list.
//
// Brush and eraser: brush_set, paint_stroke, paint_commit, paint_discard,
// erase_stroke, erase_commit, erase_discard, edit_status.
//
// Annotations: annotations_list, annotation_add_polygon,
// annotation_add_rectangle, annotation_delete.
//
// Suggestions: suggest_shapes, suggest_segments, suggest_text,
// suggest_external, suggestions_list, suggestions_accept, suggestions_reject.
//
// Views: overlay_render, annotation_crop, mask_export.
//
// # Persistence
//
// After each change the active store is saved through a storage.Snapshotter
// under "<image>#<slice>", and image_open restores it. Save failures are
// logged and do not fail the edit.
//
// # Concurrency
//
// Tool calls are serialized by a mutex in Call, so the HTTP transport may
// call in from many goroutines.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32602 for malformed arguments, -32000 for tool failures
//   - message: Human-readable error description
//   - data: The Go error string
package server
