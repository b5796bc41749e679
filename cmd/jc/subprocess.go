package main

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/jeanclaude/jc/internal/executor"
)

// claudeContract shells out to the Claude Code CLI and translates its exit
// status into an executor.Result. It is the one place in this binary that
// actually launches a subprocess; everything upstream only ever sees the
// executor.Contract interface.
type claudeContract struct {
	workingDir string
}

var _ executor.Contract = claudeContract{}

func (c claudeContract) Execute(ctx context.Context, argv []string) (executor.Result, error) {
	if len(argv) == 0 {
		return executor.Result{}, errEmptyArgv
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = c.workingDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	duration := time.Since(start).Milliseconds()

	if ctx.Err() != nil {
		return executor.Result{
			Success:    false,
			Output:     "cancelled",
			DurationMS: duration,
			RetryCode:  executor.RetryTimeout,
		}, ctx.Err()
	}

	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return executor.Result{
				Success:    false,
				Output:     stderr.String(),
				DurationMS: duration,
				RetryCode:  executor.RetryClaudeCodeError,
			}, nil
		}
		return executor.Result{}, err
	}

	return executor.Result{
		Success:    true,
		Output:     stdout.String(),
		DurationMS: duration,
		RetryCode:  executor.RetryNone,
	}, nil
}

var errEmptyArgv = emptyArgvError{}

type emptyArgvError struct{}

func (emptyArgvError) Error() string { return "jc: empty argument vector" }
