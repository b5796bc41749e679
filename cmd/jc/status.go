package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jeanclaude/jc/internal/evaluator"
	"github.com/jeanclaude/jc/internal/runtimeconfig"
	"github.com/jeanclaude/jc/internal/workflow"
)

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	scratchRoot := fs.String("scratch", ".jc/workflows", "per-workflow scratch directory root")
	configPath := fs.String("config", ".jc/config.yaml", "path to the runtime config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() == 0 {
		return listWorkflows(*scratchRoot)
	}
	return showWorkflow(*scratchRoot, *configPath, fs.Arg(0))
}

func listWorkflows(scratchRoot string) int {
	ids, err := workflow.ListWorkflows(scratchRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jc status: %v\n", err)
		return 1
	}
	if len(ids) == 0 {
		fmt.Println("no workflows found")
		return 0
	}
	for _, id := range ids {
		state, ok := workflow.LoadState(scratchRoot, id)
		if !ok {
			continue
		}
		fmt.Printf("%s  %-12s  %3.0f%%  %s\n", id, state.Phase, state.ProgressPercentage()*100, state.WorkflowName)
	}
	return 0
}

func showWorkflow(scratchRoot, configPath, workflowID string) int {
	state, ok := workflow.LoadState(scratchRoot, workflowID)
	if !ok {
		fmt.Fprintf(os.Stderr, "jc status: no such workflow %q\n", workflowID)
		return 2
	}

	fmt.Printf("workflow:  %s\n", state.WorkflowID)
	fmt.Printf("name:      %s\n", state.WorkflowName)
	fmt.Printf("phase:     %s\n", state.Phase)
	fmt.Printf("progress:  %.0f%%\n", state.ProgressPercentage()*100)
	for _, f := range state.Features {
		fmt.Printf("  - %-20s %s\n", f.Name, f.Status)
	}

	cfg, err := runtimeconfig.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jc status: %v\n", err)
		return 1
	}
	eval := evaluator.Evaluate(state, cfg.Evaluator)
	fmt.Printf("grade:     %s (%.0f%%)\n", eval.Grade, eval.QualityScore*100)

	if state.IsFailed() {
		return 1
	}
	return 0
}
