// Package acp implements the Agent Client Protocol (ACP): a bidirectional
// JSON-RPC 2.0 protocol connecting an interactive code-editing agent to a
// client (typically an IDE). Both sides of a connection act as peers: each
// may issue requests, send notifications, and must serve incoming requests
// from the other, over a single full-duplex byte stream.
//
// This package provides the wire codec, the method catalog, the dispatch
// tables, and the bidirectional connection engine. It does not provide a
// transport (stdio, TCP, ...) or agent/client business logic — callers
// supply an io.Reader/io.Writer pair and a typed Agent or Client
// implementation; see internal/stdiotransport, internal/refagent, and
// internal/refclient for worked examples.
package acp
