// Package netns executes commands inside named Linux network namespaces.
package netns

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
)

// ErrToolMissing indicates a required external utility is not installed.
var ErrToolMissing = errors.New("required tool not installed")

// Result captures the outcome of a command executed in a namespace.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Success reports whether the command exited zero.
func (r Result) Success() bool { return r.ExitCode == 0 }

// Runner abstracts namespace-scoped process execution so callers can be
// tested without root privileges or real namespaces.
type Runner interface {
	Run(namespace string, argv ...string) (Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(namespace string, argv ...string) (Result, error)

func (f RunnerFunc) Run(namespace string, argv ...string) (Result, error) {
	return f(namespace, argv...)
}

// ToolChecker is implemented by runners that can verify host tool
// availability before execution. Test fakes typically do not implement it.
type ToolChecker interface {
	Check(tool string) error
}

// ExecRunner runs commands through `ip netns exec`, synchronously, capturing
// both output streams. The caller owns any timeout (pass it through the
// executed command's own flags, e.g. curl -m).
type ExecRunner struct{}

var _ Runner = ExecRunner{}
var _ ToolChecker = ExecRunner{}

func (ExecRunner) Run(namespace string, argv ...string) (Result, error) {
	if namespace == "" {
		return Result{}, errors.New("netns: empty namespace name")
	}
	if len(argv) == 0 {
		return Result{}, errors.New("netns: empty command")
	}
	args := append([]string{"netns", "exec", namespace}, argv...)
	cmd := exec.Command("ip", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("netns: exec %q in %q: %w", argv[0], namespace, err)
	}
	return res, nil
}

// Check verifies a tool is present on the host PATH.
func (ExecRunner) Check(tool string) error {
	if _, err := exec.LookPath(tool); err != nil {
		return fmt.Errorf("%w: %s", ErrToolMissing, tool)
	}
	return nil
}

// CheckTools verifies all named tools when the runner supports checking.
// Runners without tool checking (fakes) pass vacuously.
func CheckTools(r Runner, tools ...string) error {
	tc, ok := r.(ToolChecker)
	if !ok {
		return nil
	}
	for _, t := range tools {
		if err := tc.Check(t); err != nil {
			return err
		}
	}
	return nil
}
