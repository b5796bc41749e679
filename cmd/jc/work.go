package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jeanclaude/jc/internal/evaluator"
	"github.com/jeanclaude/jc/internal/executor"
	"github.com/jeanclaude/jc/internal/runtimeconfig"
	"github.com/jeanclaude/jc/internal/store"
	"github.com/jeanclaude/jc/internal/taskid"
	"github.com/jeanclaude/jc/internal/workflow"
)

func runWork(args []string) int {
	fs := flag.NewFlagSet("work", flag.ContinueOnError)
	dbPath := fs.String("db", ".jc/events.db", "path to the event log database")
	scratchRoot := fs.String("scratch", ".jc/workflows", "per-workflow scratch directory root")
	configPath := fs.String("config", ".jc/config.yaml", "path to the runtime config file")
	claudePath := fs.String("claude-path", "claude", "path to the agent executor binary")
	model := fs.String("model", "sonnet", "model selector, opaque to the core")
	workingDir := fs.String("working-dir", ".", "working directory for the agent executor")
	dryRun := fs.Bool("dry-run", false, "plan the workflow without emitting feature or completion events")
	autoConfirm := fs.Bool("auto-confirm", false, "skip the interactive confirmation before executing")
	strictValidation := fs.Bool("strict-validation", false, "treat task validation warnings as errors")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "jc work: expected exactly one <task-id> argument")
		return 2
	}
	rawTaskID := fs.Arg(0)

	if err := taskid.Validate(rawTaskID); err != nil {
		fmt.Fprintf(os.Stderr, "jc work: %v\n", err)
		return 2
	}

	cfg, err := runtimeconfig.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jc work: %v\n", err)
		return 1
	}

	s, err := store.Open(*dbPath, store.WithSnapshotCadence(cfg.Snapshot.EveryNEvents))
	if err != nil {
		fmt.Fprintf(os.Stderr, "jc work: opening event log: %v\n", err)
		return 1
	}
	defer func() { _ = s.Close() }()
	store.AttachAutoSnapshotProjection(s, workflow.Builder{})

	workflowID := uuid.NewString()[:8]
	engine := workflow.NewEngine(s, workflow.Builder{}.InitialState())

	if err := engine.Start(workflowID, fmt.Sprintf("task-%s", rawTaskID), "beads", rawTaskID); err != nil {
		fmt.Fprintf(os.Stderr, "jc work: %v\n", err)
		return 1
	}

	if *dryRun {
		fmt.Printf("would run workflow %s for task %s (model=%s, working-dir=%s)\n",
			workflowID, rawTaskID, *model, *workingDir)
		if err := workflow.SaveState(*scratchRoot, engine.State()); err != nil {
			fmt.Fprintf(os.Stderr, "jc work: saving scratch state: %v\n", err)
			return 1
		}
		return 0
	}

	if !*autoConfirm {
		fmt.Printf("about to run workflow %s for task %s. Continue? [y/N] ", workflowID, rawTaskID)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("cancelled")
			return 3
		}
	}

	_ = strictValidation // task-id format is always enforced; no warnings exist yet to escalate

	exitCode := runFeature(engine, claudeContract{workingDir: *workingDir}, rawTaskID, *claudePath, *model)

	if err := workflow.SaveState(*scratchRoot, engine.State()); err != nil {
		fmt.Fprintf(os.Stderr, "jc work: saving scratch state: %v\n", err)
		if exitCode == 0 {
			exitCode = 1
		}
	}

	eval := evaluator.Evaluate(engine.State(), cfg.Evaluator)
	fmt.Printf("%s\n", eval.Summary)
	for _, rec := range eval.Recommendations {
		fmt.Printf("  - %s\n", rec)
	}

	return exitCode
}

// runFeature drives the single implicit feature named after the task id
// through the implementing phase: start it, invoke the agent executor with
// its retry schedule, and record the outcome.
func runFeature(engine *workflow.Engine, contract executor.Contract, taskID, claudePath, model string) int {
	if err := engine.AddFeature(taskID, fmt.Sprintf("implement %s", taskID)); err != nil {
		fmt.Fprintf(os.Stderr, "jc work: %v\n", err)
		return 1
	}
	if err := engine.TransitionPhase(workflow.PhaseImplementing); err != nil {
		fmt.Fprintf(os.Stderr, "jc work: %v\n", err)
		return 1
	}
	if err := engine.StartFeature(taskID); err != nil {
		fmt.Fprintf(os.Stderr, "jc work: %v\n", err)
		return 1
	}
	if err := engine.RecordIteration(); err != nil {
		fmt.Fprintf(os.Stderr, "jc work: %v\n", err)
		return 1
	}
	_ = engine.RecordTestOutcome(workflow.TestsStarted)

	argv, err := taskid.BuildArgv(claudePath, "/implement", taskID, "--model", model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jc work: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res, err := executor.Run(ctx, contract, argv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jc work: executor: %v\n", err)
		_ = engine.FailFeature(taskID, err.Error())
		_ = engine.MarkFailed(err.Error())
		return 1
	}

	if !res.Success {
		_ = engine.RecordTestOutcome(workflow.TestsFailed)
		_ = engine.FailFeature(taskID, res.Output)
		_ = engine.MarkFailed(res.Output)
		return 1
	}

	_ = engine.RecordTestOutcome(workflow.TestsPassed)
	if err := engine.CompleteFeature(taskID, true); err != nil {
		fmt.Fprintf(os.Stderr, "jc work: %v\n", err)
		return 1
	}
	if err := engine.MarkComplete(res.DurationMS, res.CostUSD); err != nil {
		fmt.Fprintf(os.Stderr, "jc work: %v\n", err)
		return 1
	}
	return 0
}
