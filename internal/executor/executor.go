// Package executor defines the contract the core expects from the AI agent
// executor (a subprocess or SDK bridge external to the core) and drives its
// fixed retry schedule.
package executor

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryCode classifies why an execution attempt did not succeed, and
// whether the runtime should retry it.
type RetryCode string

const (
	RetryNone                 RetryCode = "none"
	RetryClaudeCodeError      RetryCode = "claude_code_error"
	RetryTimeout              RetryCode = "timeout"
	RetryExecutionError       RetryCode = "execution_error"
	RetryErrorDuringExecution RetryCode = "error_during_execution"
)

// Retryable reports whether this code means the runtime should retry.
func (c RetryCode) Retryable() bool {
	return c != RetryNone
}

// Result is one execution attempt's outcome, as returned by the executor
// collaborator. SessionID, CostUSD and DurationMS are optional: the core
// only ever reads them, it never requires them.
type Result struct {
	Success    bool
	Output     string
	SessionID  string
	CostUSD    float64
	DurationMS int64
	RetryCode  RetryCode
}

// Contract is the shape the agent executor collaborator must implement.
// The core treats it as a single long-running operation that yields a
// Result; everything about subprocess invocation, streaming, or SDK calls
// happens on the other side of this boundary.
type Contract interface {
	Execute(ctx context.Context, argv []string) (Result, error)
}

// ContractFunc adapts a plain function to Contract.
type ContractFunc func(ctx context.Context, argv []string) (Result, error)

// Execute calls f.
func (f ContractFunc) Execute(ctx context.Context, argv []string) (Result, error) {
	return f(ctx, argv)
}

// retrySchedule is the fixed backoff the runtime uses between attempts:
// 1s before the 2nd attempt, 3s before the 3rd, 5s before the 4th.
var retrySchedule = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// fixedSchedule is a backoff.BackOff that walks retrySchedule once and then
// signals the caller to stop, instead of computing a delay algorithmically.
type fixedSchedule struct {
	attempt int
}

func (f *fixedSchedule) NextBackOff() time.Duration {
	if f.attempt >= len(retrySchedule) {
		return backoff.Stop
	}
	d := retrySchedule[f.attempt]
	f.attempt++
	return d
}

func (f *fixedSchedule) Reset() {
	f.attempt = 0
}

// errRetry marks a Result that asked for another attempt.
type errRetry struct{}

func (errRetry) Error() string { return "executor: retryable attempt" }

// Run drives contract to completion, retrying up to 3 times with the
// [1, 3, 5] second schedule whenever RetryCode != none, and never retrying
// a contract error (the executor failed to even produce a Result) or a
// result whose RetryCode is none. Context cancellation aborts the whole
// retry sequence and is surfaced to the caller, matching the cancellation
// contract: no event is emitted when the caller observes cancellation.
func Run(ctx context.Context, contract Contract, argv []string) (Result, error) {
	var last Result
	var lastErr error

	operation := func() (Result, error) {
		res, err := contract.Execute(ctx, argv)
		last, lastErr = res, err
		if err != nil {
			return res, backoff.Permanent(err)
		}
		if res.RetryCode.Retryable() {
			return res, errRetry{}
		}
		return res, nil
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(&fixedSchedule{}),
		backoff.WithMaxTries(4),
	)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		if lastErr != nil {
			return Result{}, lastErr
		}
		return last, nil
	}
	return result, nil
}
