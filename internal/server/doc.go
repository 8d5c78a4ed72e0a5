// Package server implements the MCP (Model Context Protocol) server for manga
// panel segmentation.
//
// This package provides a JSON-RPC 2.0 server that exposes the segmentation
// engine through the MCP protocol, so an assistant can split a manga page
// into panels and read them in order.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Page Information:
//   - image_load: Load a page and get metadata
//   - image_dimensions: Get width and height
//
// Panel Segmentation:
//   - manga_segment_panels: Panels in reading order with an overall confidence
//   - manga_crop_panels: Every panel as a PNG crop, in reading order
//   - manga_panel_overlay: The page with numbered panel outlines
//   - manga_edge_mask: The binary edge mask detection runs on
//
// Text:
//   - manga_ocr_panels: Per-panel Tesseract OCR in reading order
//
// Segmentation never fails on a readable page: when no confident layout is
// found the whole page comes back as one panel with fallback set.
//
// # Image Caching
//
// Pages are decoded once and cached by path for the lifetime of the process,
// so segmenting, cropping and transcribing the same page reuse one decode.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure), -32602 (invalid params) or
//     -32601 (unknown method)
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Logging
//
// All logs go to the zerolog logger given to New, never to stdout. Each tool
// call carries a random call_id field.
//
// # Usage
//
//	srv := server.New(server.DefaultOptions(), logging.FromEnv())
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
