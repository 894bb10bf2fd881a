// Package fsprovider implements the client side of fs/read_text_file and
// fs/write_text_file: reading and writing files on disk, and tracking every
// write so a host UI can show or undo the agent's edits.
package fsprovider

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"acp"
)

// FileChange records a single file modification made by an agent,
// capturing before/after content for undo and review.
type FileChange struct {
	Path       string
	OldContent string
	NewContent string
	Timestamp  time.Time
	SessionID  acp.SessionID
}

// Provider handles fs/read_text_file and fs/write_text_file requests from
// agents. It reads and writes files on disk, tracks all modifications for
// undo/review, and emits events when files are changed.
type Provider struct {
	changes       []FileChange
	mu            sync.RWMutex
	onFileChanged func(FileChange)
}

// NewProvider creates a new file system Provider.
func NewProvider() *Provider {
	return &Provider{changes: make([]FileChange, 0)}
}

// HandleReadTextFile reads a text file from disk, applying optional line
// offset and limit. Offset is 1-based. If offset is 0 or negative, it
// defaults to 1. If limit is 0 or negative, all lines from offset onward
// are returned. An offset beyond the file's length is an error, not an
// empty read, matching the edge case every agent on the other end of this
// call is written to expect.
func (p *Provider) HandleReadTextFile(params acp.FSReadTextFileParams) (acp.FSReadTextFileResult, error) {
	f, err := os.Open(params.Path)
	if err != nil {
		return acp.FSReadTextFileResult{}, fmt.Errorf("fsprovider: open %s: %w", params.Path, err)
	}
	defer f.Close()

	var allLines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		allLines = append(allLines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return acp.FSReadTextFileResult{}, fmt.Errorf("fsprovider: read %s: %w", params.Path, err)
	}

	totalLines := len(allLines)

	offset := params.Line
	if offset <= 0 {
		offset = 1
	}
	if offset > totalLines {
		return acp.FSReadTextFileResult{}, fmt.Errorf("fsprovider: line %d out of range for %s (%d lines)", offset, params.Path, totalLines)
	}

	startIdx := offset - 1
	endIdx := totalLines

	if params.Limit > 0 {
		if candidate := startIdx + params.Limit; candidate < endIdx {
			endIdx = candidate
		}
	}

	selected := allLines[startIdx:endIdx]
	content := strings.Join(selected, "\n")
	if endIdx == totalLines && totalLines > 0 {
		content += "\n"
	}

	return acp.FSReadTextFileResult{Content: content}, nil
}

// HandleWriteTextFile writes content to a file, creating parent directories
// if needed. It reads the existing content first to record the change for
// undo capability and emits a FileChanged event.
func (p *Provider) HandleWriteTextFile(params acp.FSWriteTextFileParams) error {
	var oldContent string
	if data, err := os.ReadFile(params.Path); err == nil {
		oldContent = string(data)
	}

	dir := filepath.Dir(params.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fsprovider: mkdir for %s: %w", params.Path, err)
	}

	if err := os.WriteFile(params.Path, []byte(params.Content), 0o644); err != nil {
		return fmt.Errorf("fsprovider: write %s: %w", params.Path, err)
	}

	change := FileChange{
		Path:       params.Path,
		OldContent: oldContent,
		NewContent: params.Content,
		Timestamp:  time.Now(),
		SessionID:  params.SessionID,
	}

	p.mu.Lock()
	p.changes = append(p.changes, change)
	handler := p.onFileChanged
	p.mu.Unlock()

	if handler != nil {
		handler(change)
	}

	return nil
}

// GetChanges returns a copy of all recorded file changes.
func (p *Provider) GetChanges() []FileChange {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]FileChange, len(p.changes))
	copy(out, p.changes)
	return out
}

// OnFileChanged registers a callback invoked whenever a file is written.
// Only one handler is supported; subsequent calls replace the previous one.
func (p *Provider) OnFileChanged(handler func(FileChange)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onFileChanged = handler
}
