// Package toolexec isolates subprocess execution behind an injected
// capability so everything that shells out to external tools (docker, git,
// package managers) can be exercised in tests with a fake.
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// ExecResult captures one finished subprocess. Output is retained verbatim;
// callers only inspect the exit code and attach stderr to failures.
type ExecResult struct {
	Command  string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes external tools.
type Runner interface {
	// Run executes the tool and waits for it. A non-zero exit is reported in
	// the result, not as an error; the error return means the process could
	// not be started at all.
	Run(ctx context.Context, name string, args ...string) (*ExecResult, error)
	// LookPath reports whether the named tool is on PATH.
	LookPath(name string) bool
}

// ToolError reports an external tool that exited non-zero or could not be
// spawned.
type ToolError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// NewRunner returns the Runner backed by os/exec.
func NewRunner() Runner {
	return &execRunner{log: logrus.WithField("component", "toolexec")}
}

type execRunner struct {
	log *logrus.Entry
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (*ExecResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.WithField("command", name+" "+strings.Join(args, " ")).Debug("running external tool")

	err := cmd.Run()
	result := &ExecResult{
		Command: name,
		Args:    args,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, &ToolError{Tool: name, ExitCode: -1, Err: err}
	}
	result.ExitCode = cmd.ProcessState.ExitCode()
	return result, nil
}

func (r *execRunner) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// SplitCommand breaks an official clean command line into the tool name and
// its arguments. Commands in the catalog contain no quoting.
func SplitCommand(command string) (string, []string) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}
