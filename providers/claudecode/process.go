package claudecode

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	ccprovider "github.com/ben-vargas/claude-code-provider-go"
)

// stopGracePeriod is how long Stop waits for the CLI to exit after stdin
// closes before killing the process.
const stopGracePeriod = 5 * time.Second

// maxLineBytes caps a single NDJSON line. Assistant snapshots carry full
// cumulative content, so lines can be large; beyond this the input is
// treated as oversized.
const maxLineBytes = 16 << 20

// processManager manages the Claude Code CLI process.
// Both stdin and stdout speak NDJSON (stream-json in both directions).
type processManager struct {
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stdout   io.ReadCloser
	stderr   io.ReadCloser
	reader   *bufio.Reader
	config   Config
	writeMu  sync.Mutex
	mu       sync.Mutex
	started  bool
	stopping bool
}

// newProcessManager creates a new process manager.
func newProcessManager(config Config) *processManager {
	return &processManager{config: config}
}

// BuildCLIArgs builds the CLI arguments from the config and request parameters.
//
// The CLI is driven in print mode with stream-json on both stdio directions:
//
//	claude --print --verbose --output-format stream-json --input-format stream-json \
//	       --include-partial-messages [options]
func (pm *processManager) BuildCLIArgs(params *ccprovider.RequestParams, model string) []string {
	args := []string{
		"--print",
		"--verbose",
		"--output-format", "stream-json",
		"--input-format", "stream-json",
		"--include-partial-messages",
	}

	if model != "" {
		args = append(args, "--model", model)
	}

	if system := params.GetSystem(); system != "" {
		args = append(args, "--append-system-prompt", system)
	}

	if maxTurns := params.GetMaxTurns(0); maxTurns > 0 {
		args = append(args, "--max-turns", fmt.Sprintf("%d", maxTurns))
	}

	if resume := params.GetResume(); resume != "" {
		args = append(args, "--resume", resume)
	}

	if mode := params.GetPermissionMode(); mode != "" {
		args = append(args, "--permission-mode", mode)
	}

	if params != nil {
		for _, tool := range params.AllowedTools {
			args = append(args, "--allowedTools", tool)
		}
		for _, tool := range params.DisallowedTools {
			args = append(args, "--disallowedTools", tool)
		}
	}

	// Extra args (escape hatch)
	args = append(args, pm.config.ExtraArgs...)

	return args
}

// Start spawns the CLI process.
func (pm *processManager) Start(ctx context.Context, args []string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.started {
		return errors.New("process already started")
	}

	cliPath := pm.config.CLIPath
	if cliPath == "" {
		cliPath = "claude"
	}

	pm.cmd = exec.CommandContext(ctx, cliPath, args...)

	pm.cmd.Env = os.Environ()
	for k, v := range pm.config.Env {
		pm.cmd.Env = append(pm.cmd.Env, k+"="+v)
	}

	if pm.config.WorkDir != "" {
		pm.cmd.Dir = pm.config.WorkDir
	}

	var err error
	pm.stdin, err = pm.cmd.StdinPipe()
	if err != nil {
		return &ccprovider.AgentError{
			Provider: ccprovider.ProviderClaudeCode.String(),
			Message:  "failed to create stdin pipe",
			Err:      err,
		}
	}

	pm.stdout, err = pm.cmd.StdoutPipe()
	if err != nil {
		return &ccprovider.AgentError{
			Provider: ccprovider.ProviderClaudeCode.String(),
			Message:  "failed to create stdout pipe",
			Err:      err,
		}
	}

	pm.stderr, err = pm.cmd.StderrPipe()
	if err != nil {
		return &ccprovider.AgentError{
			Provider: ccprovider.ProviderClaudeCode.String(),
			Message:  "failed to create stderr pipe",
			Err:      err,
		}
	}

	pm.reader = bufio.NewReaderSize(pm.stdout, 64<<10)

	if err := pm.cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return &ccprovider.AgentError{
				Provider: ccprovider.ProviderClaudeCode.String(),
				Message:  fmt.Sprintf("CLI binary not found at %q", cliPath),
				Err:      ccprovider.ErrAgentUnavailable,
			}
		}
		return &ccprovider.AgentError{
			Provider: ccprovider.ProviderClaudeCode.String(),
			Message:  "failed to start CLI process",
			Err:      err,
		}
	}

	pm.started = true
	return nil
}

// ReadLine reads the next JSON line from stdout.
// Lines beyond maxLineBytes are rejected as oversized input.
func (pm *processManager) ReadLine() ([]byte, error) {
	pm.mu.Lock()
	reader := pm.reader
	pm.mu.Unlock()

	if reader == nil {
		return nil, errors.New("process not started")
	}

	var line []byte
	for {
		chunk, err := reader.ReadBytes('\n')
		line = append(line, chunk...)
		if len(line) > maxLineBytes {
			return nil, ccprovider.ErrOversizedInput
		}
		if err != nil {
			if err == io.EOF && len(line) > 0 {
				// Partial trailing line: surface it so the caller can run
				// truncation detection on the fragment.
				return line, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		if len(chunk) > 0 && chunk[len(chunk)-1] == '\n' {
			return line[:len(line)-1], nil
		}
	}
}

// WriteMessage marshals and writes one NDJSON message to stdin.
func (pm *processManager) WriteMessage(msg interface{}) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	pm.writeMu.Lock()
	defer pm.writeMu.Unlock()

	if pm.stdin == nil {
		return errors.New("process not started")
	}

	if _, err := pm.stdin.Write(append(raw, '\n')); err != nil {
		return &ccprovider.AgentError{
			Provider: ccprovider.ProviderClaudeCode.String(),
			Message:  "failed to write to CLI stdin",
			Err:      err,
		}
	}
	return nil
}

// CloseInput closes stdin, signaling end of input to the CLI.
func (pm *processManager) CloseInput() error {
	pm.writeMu.Lock()
	defer pm.writeMu.Unlock()

	if pm.stdin == nil {
		return nil
	}
	err := pm.stdin.Close()
	pm.stdin = nil
	return err
}

// Stderr returns the stderr reader.
func (pm *processManager) Stderr() io.Reader {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.stderr
}

// Stop gracefully shuts down the CLI process: close stdin, wait for exit,
// kill after the grace period.
func (pm *processManager) Stop() error {
	pm.mu.Lock()
	if !pm.started || pm.stopping {
		pm.mu.Unlock()
		return nil
	}
	pm.stopping = true
	pm.mu.Unlock()

	_ = pm.CloseInput()

	done := make(chan error, 1)
	go func() {
		done <- pm.cmd.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(stopGracePeriod):
		_ = pm.cmd.Process.Kill()
		return <-done
	}
}
