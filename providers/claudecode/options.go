package claudecode

import "log/slog"

// Config holds provider-level settings. Zero values fall back to sane
// defaults: "claude" on PATH, the process working directory, "sonnet".
type Config struct {
	// CLIPath is the path to the CLI binary.
	CLIPath string

	// WorkDir is the working directory for spawned CLI processes.
	WorkDir string

	// Env is extra environment for spawned processes, merged over os.Environ.
	Env map[string]string

	// ExtraArgs are appended verbatim to the CLI argument list.
	ExtraArgs []string

	// DefaultModel is used when the request does not name a model.
	DefaultModel string

	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// StderrHandler receives each CLI stderr line, for surfacing agent
	// diagnostics. Nil discards stderr.
	StderrHandler func(line string)
}

// Option configures a Provider.
type Option func(*Config)

// WithCLIPath sets the CLI binary path.
func WithCLIPath(path string) Option {
	return func(c *Config) { c.CLIPath = path }
}

// WithWorkDir sets the working directory for spawned CLI processes.
func WithWorkDir(dir string) Option {
	return func(c *Config) { c.WorkDir = dir }
}

// WithEnv adds environment variables for spawned processes.
func WithEnv(env map[string]string) Option {
	return func(c *Config) {
		if c.Env == nil {
			c.Env = make(map[string]string, len(env))
		}
		for k, v := range env {
			c.Env[k] = v
		}
	}
}

// WithExtraArgs appends raw CLI arguments.
func WithExtraArgs(args ...string) Option {
	return func(c *Config) { c.ExtraArgs = append(c.ExtraArgs, args...) }
}

// WithDefaultModel sets the model used when the request does not name one.
func WithDefaultModel(model string) Option {
	return func(c *Config) { c.DefaultModel = model }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithStderrHandler sets a callback for CLI stderr lines.
func WithStderrHandler(fn func(line string)) Option {
	return func(c *Config) { c.StderrHandler = fn }
}
