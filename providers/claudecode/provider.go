// Package claudecode adapts the Claude Code CLI into the unified provider
// interface. The CLI runs in print mode with stream-json on both stdio
// directions; this package spawns it per request, translates its
// heterogeneous NDJSON event stream into ordered stream parts, and manages
// the process lifecycle.
package claudecode

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	ccprovider "github.com/ben-vargas/claude-code-provider-go"
)

// defaultModel is used when neither the config nor the request names one.
const defaultModel = "sonnet"

// maxPromptBytes is the ceiling on rendered prompt size. Prompts beyond it
// are rejected before any process is spawned.
const maxPromptBytes = 8 << 20

// Provider implements ccprovider.Provider on top of the Claude Code CLI.
type Provider struct {
	config Config
	logger *slog.Logger
}

// Turn is the handle for one in-flight streaming request. It exposes the
// part stream and accepts mid-turn user input.
type Turn struct {
	parts  <-chan ccprovider.StreamPart
	source *processSource
}

// Parts returns the stream of parts for this turn. The channel closes after
// the terminal part.
func (t *Turn) Parts() <-chan ccprovider.StreamPart { return t.parts }

// Inject queues text for delivery to the agent as a user message. The
// returned channel receives nil once the message reaches the agent, or
// ErrTurnFinished when the turn already terminated.
func (t *Turn) Inject(text string) <-chan error { return t.source.Inject(text) }

// NewProvider creates a Claude Code provider.
func NewProvider(opts ...Option) *Provider {
	var config Config
	for _, opt := range opts {
		opt(&config)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{config: config, logger: logger}
}

// Name returns the provider identifier.
func (p *Provider) Name() ccprovider.ProviderID {
	return ccprovider.ProviderClaudeCode
}

// SupportsModel reports whether the model is one the CLI accepts: a known
// alias or any fully qualified claude model id. Unknown claude ids pass,
// since the CLI itself is the source of truth for model availability.
func (p *Provider) SupportsModel(model string) bool {
	if strings.HasPrefix(model, "claude-") {
		return true
	}
	return ccprovider.GetCapabilityRegistry().SupportsModel(p.Name().String(), model)
}

// GenerateResponse runs a full turn and aggregates the part stream.
func (p *Provider) GenerateResponse(ctx context.Context, req *ccprovider.GenerateRequest) (*ccprovider.GenerateResponse, error) {
	parts, err := p.StreamResponse(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := collectResponse(parts)
	if err != nil {
		return nil, err
	}

	if req.Params.WantsStructuredOutput() && resp.Text != "" && gjson.Valid(resp.Text) {
		resp.StructuredOutput = json.RawMessage(resp.Text)
	}
	return resp, nil
}

// StreamResponse starts a turn and returns its part stream.
func (p *Provider) StreamResponse(ctx context.Context, req *ccprovider.GenerateRequest) (<-chan ccprovider.StreamPart, error) {
	turn, err := p.StartTurn(ctx, req)
	if err != nil {
		return nil, err
	}
	return turn.Parts(), nil
}

// StartTurn validates the request, spawns the CLI, and starts the
// translation engine. The returned Turn carries the part stream and the
// input injector.
func (p *Provider) StartTurn(ctx context.Context, req *ccprovider.GenerateRequest) (*Turn, error) {
	if err := req.Params.Validate(); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = req.Params.GetModel(p.config.DefaultModel)
	}
	if model == "" {
		model = defaultModel
	}
	if !p.SupportsModel(model) {
		return nil, &ccprovider.ModelError{
			Model:    model,
			Provider: p.Name().String(),
			Reason:   "model not supported",
			Err:      ccprovider.ErrInvalidModel,
		}
	}

	prompt, err := ccprovider.FormatPrompt(req.Messages)
	if err != nil {
		return nil, err
	}
	if len(prompt) > maxPromptBytes {
		return nil, &ccprovider.ValidationError{
			Field:  "messages",
			Value:  len(prompt),
			Reason: "rendered prompt exceeds size ceiling",
			Err:    ccprovider.ErrOversizedInput,
		}
	}

	pm := newProcessManager(p.config)
	args := pm.BuildCLIArgs(req.Params, ccprovider.GetCapabilityRegistry().ResolveModelAlias(p.Name().String(), model))
	if err := pm.Start(ctx, args); err != nil {
		return nil, err
	}

	if p.config.StderrHandler != nil {
		go p.drainStderr(pm)
	}

	source := newProcessSource(ctx, pm, p.logger)

	// Deliver the prompt and signal that no further prompt follows. The
	// input channel stays open for mid-turn injections.
	if err := pm.WriteMessage(NewUserTextMessage(prompt)); err != nil {
		_ = source.Close()
		return nil, err
	}

	parts := make(chan ccprovider.StreamPart, 10)
	emit := func(part ccprovider.StreamPart) error {
		select {
		case parts <- part:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	eng := newEngine(emit, p.logger, req.Params, model, source.finishInput)

	go func() {
		defer close(parts)
		defer func() {
			if err := source.Close(); err != nil {
				p.logger.Debug("closing CLI process", "error", err)
			}
		}()
		if err := eng.Run(ctx, source); err != nil {
			p.logger.Debug("turn ended with error", "error", err)
		}
	}()

	return &Turn{parts: parts, source: source}, nil
}

func (p *Provider) drainStderr(pm *processManager) {
	stderr := pm.Stderr()
	if stderr == nil {
		return
	}
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for scanner.Scan() {
		p.config.StderrHandler(scanner.Text())
	}
}
