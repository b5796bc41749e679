// Command jc runs event-sourced coding workflows: work drives one to
// completion against a validated task id, status and logs inspect an
// in-flight or finished one.
package main

import (
	"fmt"
	"os"
)

var version = "0.1.0-dev"

func printUsage() {
	fmt.Fprintf(os.Stderr, "jc - event-sourced workflow runtime\n\n")
	fmt.Fprintf(os.Stderr, "Usage: jc <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  work <task-id>      Run a workflow against a task-tracker id\n")
	fmt.Fprintf(os.Stderr, "  status [workflow-id] List workflows, or show one in detail\n")
	fmt.Fprintf(os.Stderr, "  logs <workflow-id>   Print a workflow's event log\n")
	fmt.Fprintf(os.Stderr, "  version              Show version information\n")
	fmt.Fprintf(os.Stderr, "  help                 Show this help message\n")
	fmt.Fprintf(os.Stderr, "\nRun 'jc <command> --help' for more information on a command.\n")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "work":
		return runWork(args[1:])
	case "status":
		return runStatus(args[1:])
	case "logs":
		return runLogs(args[1:])
	case "version":
		fmt.Printf("jc v%s\n", version)
		return 0
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "jc: unknown command %q\n\n", args[0])
		printUsage()
		return 1
	}
}
