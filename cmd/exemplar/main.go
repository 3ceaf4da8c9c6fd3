package main

import (
	"fmt"
	"os"
)

// Version is set at build time via ldflags
var Version = "dev"

const pidFile = "exemplard.pid"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit()
	case "start":
		err = cmdStart()
	case "stop":
		err = cmdStop()
	case "status":
		err = cmdStatus()
	case "logs":
		err = cmdLogs()
	case "config":
		err = cmdConfig()
	case "provider":
		err = cmdProvider(os.Args[2:])
	case "extract":
		err = cmdExtract(os.Args[2:])
	case "generate":
		err = cmdGenerate(os.Args[2:])
	case "fixture":
		err = cmdFixture(os.Args[2:])
	case "mcp":
		err = cmdMCP()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("exemplar %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Exemplar - Test case extraction for programming problems

Usage:
  exemplar <command> [arguments]

Setup Commands:
  init            Initialize Exemplar (first-time setup)
  config          Show current configuration
  provider        Manage LLM providers

Daemon Commands:
  start           Start the Exemplar daemon
  stop            Stop the Exemplar daemon
  status          Show daemon status
  logs            View daemon logs

Extraction Commands:
  extract <cases-file> [expected-file]   Extract test cases locally
        --json                           Print submission JSON only
  generate <requirements>                Generate a problem (needs daemon)
        --save                           Save the cases as a fixture set

Fixture Commands (need daemon):
  fixture save <cases-file> [expected-file] [--title T]
  fixture list                           List fixture sets
  fixture show <id>                      Show a fixture set
  fixture edit <id> <index> <input> <output>
  fixture export <id>                    Print submission JSON
  fixture delete <id>                    Delete a fixture set

Integration Commands:
  mcp             Start MCP server on stdio

Other:
  help            Show this help message
  version         Show version information

Examples:
  exemplar extract problem.txt              # Extract cases from a file
  exemplar extract cases.txt expected.txt   # Pair cases with expected output
  exemplar start                            # Start daemon
  exemplar generate "两数之和" --save         # Generate and save a problem
  exemplar mcp                              # Start MCP server`)
}
