package netns

import (
	"errors"
	"testing"
)

func TestResultSuccess(t *testing.T) {
	if !(Result{ExitCode: 0}).Success() {
		t.Error("exit 0 should be success")
	}
	if (Result{ExitCode: 2}).Success() {
		t.Error("exit 2 should not be success")
	}
}

func TestRunnerFuncAdapter(t *testing.T) {
	var gotNS string
	var gotArgv []string
	r := RunnerFunc(func(ns string, argv ...string) (Result, error) {
		gotNS = ns
		gotArgv = argv
		return Result{Stdout: []byte("hi")}, nil
	})
	res, err := r.Run("vpn0", "echo", "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotNS != "vpn0" || len(gotArgv) != 2 || gotArgv[0] != "echo" {
		t.Errorf("adapter did not pass through args: ns=%q argv=%v", gotNS, gotArgv)
	}
	if string(res.Stdout) != "hi" {
		t.Errorf("stdout = %q", res.Stdout)
	}
}

func TestExecRunnerRejectsEmptyInput(t *testing.T) {
	if _, err := (ExecRunner{}).Run("", "true"); err == nil {
		t.Error("expected error for empty namespace")
	}
	if _, err := (ExecRunner{}).Run("vpn0"); err == nil {
		t.Error("expected error for empty command")
	}
}

func TestExecRunnerCheck(t *testing.T) {
	err := ExecRunner{}.Check("fwdlease-no-such-tool-3f9a")
	if !errors.Is(err, ErrToolMissing) {
		t.Errorf("expected ErrToolMissing, got %v", err)
	}
	// sh is present on any platform these tests run on
	if err := (ExecRunner{}).Check("sh"); err != nil {
		t.Errorf("sh should be found: %v", err)
	}
}

func TestCheckToolsSkipsNonCheckers(t *testing.T) {
	fake := RunnerFunc(func(ns string, argv ...string) (Result, error) { return Result{}, nil })
	if err := CheckTools(fake, "traceroute", "curl"); err != nil {
		t.Errorf("fake runner should pass tool check vacuously: %v", err)
	}
}
