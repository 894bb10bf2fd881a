// Package termprovider implements the client side of terminal/*: spawning
// PTY-backed subprocesses on behalf of an agent, buffering their output, and
// exposing output/wait/kill/release operations.
package termprovider

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"acp"

	"github.com/creack/pty"
	"github.com/google/uuid"
)

// Terminal represents a single PTY-backed subprocess spawned on behalf of
// an agent.
type Terminal struct {
	ID         string
	SessionID  acp.SessionID
	Command    string
	Args       []string
	CWD        string
	Output     bytes.Buffer
	Truncated  bool
	ByteLimit  int
	ExitStatus *acp.TerminalExitStatus
	cmd        *exec.Cmd
	pty        *os.File
	done       chan struct{}
	mu         sync.Mutex
}

// Provider manages terminal instances created by agents. It starts
// subprocesses under a pseudo-terminal, captures their output, and provides
// methods to query output, wait for exit, kill, and release.
type Provider struct {
	terminals map[string]*Terminal
	mu        sync.RWMutex
	onOutput  func(terminalID string, data string)
}

// NewProvider creates a new terminal Provider.
func NewProvider() *Provider {
	return &Provider{terminals: make(map[string]*Terminal)}
}

// HandleCreate starts a new subprocess under a pty and returns its terminal
// ID. Output is truncated from the beginning once it exceeds the
// configured byte limit.
func (p *Provider) HandleCreate(params acp.TerminalCreateParams) (acp.TerminalCreateResult, error) {
	id := uuid.New().String()

	cmd := exec.Command(params.Command, params.Args...)
	if params.CWD != "" {
		cmd.Dir = params.CWD
	}
	if len(params.Env) > 0 {
		env := cmd.Environ()
		for _, kv := range params.Env {
			env = append(env, kv.Name+"="+kv.Value)
		}
		cmd.Env = env
	}

	byteLimit := params.OutputByteLimit
	if byteLimit <= 0 {
		byteLimit = 1024 * 1024
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return acp.TerminalCreateResult{}, fmt.Errorf("termprovider: start %q: %w", params.Command, err)
	}

	t := &Terminal{
		ID:        id,
		SessionID: params.SessionID,
		Command:   params.Command,
		Args:      params.Args,
		CWD:       params.CWD,
		ByteLimit: byteLimit,
		cmd:       cmd,
		pty:       ptmx,
		done:      make(chan struct{}),
	}

	p.mu.Lock()
	p.terminals[id] = t
	p.mu.Unlock()

	go p.readOutput(t)
	go p.waitForProcess(t)

	return acp.TerminalCreateResult{TerminalID: id}, nil
}

// readOutput reads from the pty master and appends to the terminal's output
// buffer, truncating from the beginning if the byte limit is exceeded. A
// read error is the normal way a pty signals the child exited.
func (p *Provider) readOutput(t *Terminal) {
	buf := make([]byte, 4096)
	for {
		n, err := t.pty.Read(buf)
		if n > 0 {
			chunk := buf[:n]

			t.mu.Lock()
			t.Output.Write(chunk)
			if t.Output.Len() > t.ByteLimit {
				data := t.Output.Bytes()
				excess := len(data) - t.ByteLimit
				t.Output.Reset()
				t.Output.Write(data[excess:])
				t.Truncated = true
			}
			t.mu.Unlock()

			p.mu.RLock()
			handler := p.onOutput
			p.mu.RUnlock()

			if handler != nil {
				handler(t.ID, string(chunk))
			}
		}
		if err != nil {
			return
		}
	}
}

// waitForProcess waits for the subprocess to exit and records its exit
// status.
func (p *Provider) waitForProcess(t *Terminal) {
	err := t.cmd.Wait()
	_ = t.pty.Close()

	t.mu.Lock()
	defer t.mu.Unlock()

	status := acp.TerminalExitStatus{}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code := exitErr.ExitCode()
			status.ExitCode = &code
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				status.Signal = ws.Signal().String()
			}
		} else {
			code := -1
			status.ExitCode = &code
		}
	} else {
		code := 0
		status.ExitCode = &code
	}

	t.ExitStatus = &status
	close(t.done)
}

func (p *Provider) get(id string) (*Terminal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	t, ok := p.terminals[id]
	if !ok {
		return nil, fmt.Errorf("termprovider: terminal %q not found", id)
	}
	return t, nil
}

// HandleOutput returns the current buffered output for a terminal and its
// exit status if the process has finished.
func (p *Provider) HandleOutput(params acp.TerminalOutputParams) (acp.TerminalOutputResult, error) {
	t, err := p.get(params.TerminalID)
	if err != nil {
		return acp.TerminalOutputResult{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return acp.TerminalOutputResult{
		Output:     t.Output.String(),
		Truncated:  t.Truncated,
		ExitStatus: t.ExitStatus,
	}, nil
}

// HandleWaitForExit blocks until the terminal's subprocess exits and
// returns the exit status.
func (p *Provider) HandleWaitForExit(params acp.TerminalWaitParams) (acp.TerminalWaitResult, error) {
	t, err := p.get(params.TerminalID)
	if err != nil {
		return acp.TerminalWaitResult{}, err
	}

	<-t.done

	t.mu.Lock()
	status := *t.ExitStatus
	t.mu.Unlock()

	return acp.TerminalWaitResult{ExitCode: status.ExitCode, Signal: status.Signal}, nil
}

// HandleKill sends SIGTERM to the subprocess. If it hasn't exited after 5
// seconds, it sends SIGKILL.
func (p *Provider) HandleKill(params acp.TerminalKillParams) error {
	t, err := p.get(params.TerminalID)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.ExitStatus != nil {
		t.mu.Unlock()
		return nil
	}
	process := t.cmd.Process
	t.mu.Unlock()

	if process == nil {
		return nil
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return nil
	}

	select {
	case <-t.done:
		return nil
	case <-time.After(5 * time.Second):
		_ = process.Signal(syscall.SIGKILL)
		<-t.done
		return nil
	}
}

// HandleRelease kills the subprocess if still running and removes the
// terminal from the provider's map, freeing resources.
func (p *Provider) HandleRelease(params acp.TerminalReleaseParams) error {
	t, err := p.get(params.TerminalID)
	if err != nil {
		return err
	}

	_ = p.HandleKill(acp.TerminalKillParams{SessionID: params.SessionID, TerminalID: t.ID})

	p.mu.Lock()
	delete(p.terminals, params.TerminalID)
	p.mu.Unlock()

	return nil
}

// OnOutput registers a callback invoked whenever new output is read from
// any terminal. Only one handler is supported; subsequent calls replace
// the previous handler.
func (p *Provider) OnOutput(handler func(terminalID string, data string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onOutput = handler
}

// CloseAll kills and releases all active terminals.
func (p *Provider) CloseAll() {
	p.mu.RLock()
	ids := make([]string, 0, len(p.terminals))
	for id := range p.terminals {
		ids = append(ids, id)
	}
	p.mu.RUnlock()

	for _, id := range ids {
		_ = p.HandleRelease(acp.TerminalReleaseParams{TerminalID: id})
	}
}
