// Package main is the entry point for the Treewright engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/dshills/treewright/internal/app"
	"github.com/dshills/treewright/internal/tree/text"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	args := flag.Args()
	if len(args) > 0 {
		switch args[0] {
		case "print":
			if len(args) != 2 {
				fmt.Fprintf(os.Stderr, "Usage: treewright print FILE\n")
				return 2
			}
			return runPrint(args[1])
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", args[0])
			flag.Usage()
			return 2
		}
	}

	return serve(opts)
}

// serve runs the engine over stdio until the host disconnects or the
// process is signaled.
func serve(opts app.Options) int {
	// The protocol stream is not for humans.
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintf(os.Stderr, "Error: treewright serves a sync protocol over stdio; connect a host, or run 'treewright print FILE'\n")
		return 1
	}

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	// Ensure cleanup on all exit paths
	defer application.Shutdown()

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		application.Shutdown()
	}()

	if err := application.Serve(context.Background(), os.Stdin, os.Stdout, os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

// runPrint parses one file and writes its printed form to stdout.
func runPrint(path string) int {
	doc, err := text.NewParser().ParseFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if _, err := os.Stdout.WriteString(doc.Print()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() app.Options {
	var opts app.Options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.Workspace, "workspace", "", "Workspace directory to serve")
	flag.StringVar(&opts.Workspace, "w", "", "Workspace directory to serve (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Treewright - incremental source tree sync engine\n\n")
		fmt.Fprintf(os.Stderr, "Usage: treewright [options] [print FILE]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  treewright                      Serve the current directory over stdio\n")
		fmt.Fprintf(os.Stderr, "  treewright -w ./project         Serve a workspace\n")
		fmt.Fprintf(os.Stderr, "  treewright -c treewright.toml   Serve with a config file\n")
		fmt.Fprintf(os.Stderr, "  treewright print file.txt       Parse and reprint one file\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Treewright %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	return opts
}
