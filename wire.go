package acp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
)

// maxLineSize bounds a single incoming JSON-RPC line. Tool-call content can
// embed base64 resources, so the ceiling is generous, matching the teacher's
// stdio transport.
const maxLineSize = 10 * 1024 * 1024

// RawJSON is an unparsed JSON value, used by the extension method/
// notification payloads (§4.6) that carry caller-defined params verbatim.
type RawJSON = json.RawMessage

// envelope is the raw, non-owning shape every line on the wire is parsed
// into before any typed payload is decoded. Deferring the typed parse to the
// per-method dispatcher avoids double-parsing large params (§4.1, §9).
type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int32          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// isRequest reports whether the envelope is a request (method + id).
func (e *envelope) isRequest() bool { return e.Method != "" && e.ID != nil }

// isNotification reports whether the envelope is a notification (method, no id).
func (e *envelope) isNotification() bool { return e.Method != "" && e.ID == nil }

// isResponse reports whether the envelope is a response (id, no method).
func (e *envelope) isResponse() bool { return e.Method == "" && e.ID != nil }

// wireReader reads newline-delimited JSON-RPC envelopes from an io.Reader.
// Each envelope is parsed from exactly one line. next() skips blank lines,
// and a malformed line is reported to onParseError (if set) and skipped;
// the stream is not torn down (§4.1).
type wireReader struct {
	scanner      *bufio.Scanner
	onParseError func(line []byte, err error)
}

func newWireReader(r io.Reader, onParseError func([]byte, error)) *wireReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &wireReader{scanner: s, onParseError: onParseError}
}

// next returns the next valid envelope, skipping blank lines and malformed
// JSON. It returns false once the underlying reader is exhausted or fails;
// err reports which.
func (r *wireReader) next() (*envelope, bool) {
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var e envelope
		if err := json.Unmarshal(line, &e); err != nil {
			if r.onParseError != nil {
				r.onParseError(append([]byte(nil), line...), err)
			} else {
				log.Printf("acp: invalid JSON line: %v", err)
			}
			continue
		}
		return &e, true
	}
	return nil, false
}

// err returns the scanner's terminal error, if any (e.g. a line exceeding
// maxLineSize). A clean EOF reports nil.
func (r *wireReader) err() error {
	return r.scanner.Err()
}

// wireWriter writes one JSON-RPC envelope per line to an io.Writer. Writes
// are serialized so a single outgoing envelope is always written
// contiguously before any other (§5 "Ordering guarantees").
type wireWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newWireWriter(w io.Writer) *wireWriter {
	return &wireWriter{w: w}
}

func (w *wireWriter) write(e *envelope) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("acp: marshal envelope: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.w.Write(data)
	if err != nil {
		return fmt.Errorf("acp: write envelope: %w", err)
	}
	return nil
}
