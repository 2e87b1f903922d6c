package toolexec

import (
	"context"
	"strings"
	"sync"
)

// FakeResponse is one scripted subprocess outcome.
type FakeResponse struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// FakeRunner is an in-memory Runner for tests. Responses are keyed by the
// full command line; unscripted commands succeed with empty output.
type FakeRunner struct {
	mu        sync.Mutex
	Responses map[string]FakeResponse
	Missing   map[string]bool
	calls     []string
}

// NewFakeRunner builds an empty fake.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Responses: make(map[string]FakeResponse),
		Missing:   make(map[string]bool),
	}
}

// Script registers the response for one command line.
func (f *FakeRunner) Script(commandLine string, resp FakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[commandLine] = resp
}

// Calls returns the command lines run so far, in order.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (*ExecResult, error) {
	line := name
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}

	f.mu.Lock()
	f.calls = append(f.calls, line)
	resp, scripted := f.Responses[line]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !scripted {
		return &ExecResult{Command: name, Args: args}, nil
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return &ExecResult{
		Command:  name,
		Args:     args,
		ExitCode: resp.ExitCode,
		Stdout:   resp.Stdout,
		Stderr:   resp.Stderr,
	}, nil
}

func (f *FakeRunner) LookPath(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.Missing[name]
}
