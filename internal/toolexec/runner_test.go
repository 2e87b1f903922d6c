package toolexec

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestRunnerCapturesOutput(t *testing.T) {
	r := NewRunner()

	result, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err 1>&2")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
	if result.Stdout != "out\n" {
		t.Errorf("Stdout = %q, want %q", result.Stdout, "out\n")
	}
	if result.Stderr != "err\n" {
		t.Errorf("Stderr = %q, want %q", result.Stderr, "err\n")
	}
}

func TestRunnerNonZeroExitIsNotAnError(t *testing.T) {
	r := NewRunner()

	result, err := r.Run(context.Background(), "sh", "-c", "exit 3")
	if err != nil {
		t.Fatalf("Run() error = %v, want nil for a non-zero exit", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", result.ExitCode)
	}
}

func TestRunnerMissingBinary(t *testing.T) {
	r := NewRunner()

	_, err := r.Run(context.Background(), "devclean-no-such-tool")
	if err == nil {
		t.Fatal("Run() of a missing binary should fail")
	}
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error = %T, want *ToolError", err)
	}
	if toolErr.Tool != "devclean-no-such-tool" || toolErr.Err == nil {
		t.Errorf("ToolError = %+v, want the tool name and a wrapped cause", toolErr)
	}
}

func TestRunnerCancelledContext(t *testing.T) {
	r := NewRunner()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.Run(ctx, "sh", "-c", "sleep 5")
	if err == nil && result.ExitCode == 0 {
		t.Error("Run() with a cancelled context should not report success")
	}
}

func TestRunnerLookPath(t *testing.T) {
	r := NewRunner()

	if !r.LookPath("sh") {
		t.Error("LookPath(sh) = false, want true")
	}
	if r.LookPath("devclean-no-such-tool") {
		t.Error("LookPath of a missing binary = true, want false")
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		wantTool string
		wantArgs []string
	}{
		{"tool with flags", "docker system prune --force", "docker", []string{"system", "prune", "--force"}},
		{"bare tool", "npm", "npm", []string{}},
		{"extra whitespace", "  go   clean  -cache ", "go", []string{"clean", "-cache"}},
		{"empty", "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool, args := SplitCommand(tt.command)
			if tool != tt.wantTool {
				t.Errorf("tool = %q, want %q", tool, tt.wantTool)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tt.wantArgs)
			}
			if len(args) > 0 && !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestToolErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *ToolError
		want string
	}{
		{
			name: "spawn failure",
			err:  &ToolError{Tool: "docker", Err: errors.New("executable not found")},
			want: "docker: executable not found",
		},
		{
			name: "exit status with stderr",
			err:  &ToolError{Tool: "docker", ExitCode: 1, Stderr: "daemon not running\n"},
			want: "docker exited with status 1: daemon not running",
		},
		{
			name: "exit status without stderr",
			err:  &ToolError{Tool: "npm", ExitCode: 2},
			want: "npm exited with status 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToolErrorUnwrap(t *testing.T) {
	cause := errors.New("permission denied")
	err := &ToolError{Tool: "docker", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}
