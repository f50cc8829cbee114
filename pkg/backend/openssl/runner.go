package openssl

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"

	"al.essio.dev/pkg/shellescape"
)

// ToolError reports a non-zero exit from the external signing tool. It
// carries the tool's standard-error text verbatim as the failure detail.
type ToolError struct {
	Args   []string // Full command line, binary first
	Stderr string   // Captured standard error
	Err    error    // Underlying process error
}

// Error implements the error interface. The command line is quoted so it
// can be replayed as-is.
func (e *ToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s", shellescape.QuoteCommand(e.Args), e.Stderr)
	}
	return fmt.Sprintf("%s: %v", shellescape.QuoteCommand(e.Args), e.Err)
}

// Unwrap returns the underlying process error.
func (e *ToolError) Unwrap() error { return e.Err }

// Runner starts the external signing tool and captures its output.
//
// The abstraction keeps the driver from depending directly on exec.Cmd,
// so tests can substitute a mock tool.
type Runner interface {
	// Run executes name with args, feeding stdin when non-nil, and
	// returns the captured standard output. A non-zero exit returns a
	// *ToolError.
	Run(name string, stdin io.Reader, args ...string) (string, error)
}

// ExecRunner is the default Runner backed by exec.Cmd.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

// Run executes the command and captures stdout and stderr separately.
func (ExecRunner) Run(name string, stdin io.Reader, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = stdin
	}

	if err := cmd.Run(); err != nil {
		return "", &ToolError{
			Args:   append([]string{name}, args...),
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return stdout.String(), nil
}
