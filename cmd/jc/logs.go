package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/jeanclaude/jc/internal/store"
)

func runLogs(args []string) int {
	fs := flag.NewFlagSet("logs", flag.ContinueOnError)
	dbPath := fs.String("db", ".jc/events.db", "path to the event log database")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "jc logs: expected exactly one <workflow-id> argument")
		return 2
	}
	workflowID := fs.Arg(0)

	s, err := store.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jc logs: %v\n", err)
		return 1
	}
	defer func() { _ = s.Close() }()

	events, err := s.GetEvents(workflowID, store.QueryOptions{Order: store.Asc})
	if err != nil {
		fmt.Fprintf(os.Stderr, "jc logs: %v\n", err)
		return 1
	}
	if len(events) == 0 {
		fmt.Fprintf(os.Stderr, "jc logs: no events for workflow %q\n", workflowID)
		return 2
	}

	enc := json.NewEncoder(os.Stdout)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			fmt.Fprintf(os.Stderr, "jc logs: %v\n", err)
			return 1
		}
	}
	return 0
}
