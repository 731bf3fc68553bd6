package claudecode

import (
	"testing"

	"github.com/stretchr/testify/assert"

	ccprovider "github.com/ben-vargas/claude-code-provider-go"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestBuildCLIArgs_Defaults(t *testing.T) {
	pm := newProcessManager(Config{})
	args := pm.BuildCLIArgs(nil, "claude-sonnet-4-5")

	assert.Equal(t, []string{
		"--print",
		"--verbose",
		"--output-format", "stream-json",
		"--input-format", "stream-json",
		"--include-partial-messages",
		"--model", "claude-sonnet-4-5",
	}, args)
}

func TestBuildCLIArgs_AllParams(t *testing.T) {
	pm := newProcessManager(Config{ExtraArgs: []string{"--mcp-debug"}})
	params := &ccprovider.RequestParams{
		System:          strPtr("be terse"),
		MaxTurns:        intPtr(3),
		Resume:          strPtr("sess-9"),
		AllowedTools:    []string{"Read", "Grep"},
		DisallowedTools: []string{"Bash"},
		PermissionMode:  strPtr("plan"),
	}

	args := pm.BuildCLIArgs(params, "claude-opus-4-5")

	assert.Contains(t, args, "--append-system-prompt")
	assert.Contains(t, args, "be terse")
	assert.Contains(t, args, "--max-turns")
	assert.Contains(t, args, "3")
	assert.Contains(t, args, "--resume")
	assert.Contains(t, args, "sess-9")
	assert.Contains(t, args, "--permission-mode")
	assert.Contains(t, args, "plan")
	assert.Contains(t, args, "--disallowedTools")
	assert.Contains(t, args, "Bash")
	assert.Equal(t, "--mcp-debug", args[len(args)-1])

	// Both allowed tools appear as separate flags.
	count := 0
	for _, a := range args {
		if a == "--allowedTools" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}
