// cmd/groundwork/main.go
//
// This is the entry point for the Groundwork CLI.
// When you run `groundwork` from a project directory, this is what executes.
//
// Flow:
// 1. Resolve the project directory (-project flag, defaults to cwd)
// 2. Initialize the .groundwork folder and load configuration
// 3. Launch the TUI wizard

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kingrea/groundwork/internal/config"
	"github.com/kingrea/groundwork/internal/tui"
)

func main() {
	projectFlag := flag.String("project", "", "project directory (defaults to the current directory)")
	flag.Parse()

	projectDir := *projectFlag
	if projectDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
			os.Exit(1)
		}
		projectDir = cwd
	}
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving project directory: %v\n", err)
		os.Exit(1)
	}

	if err := config.Init(projectDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing .groundwork directory: %v\n", err)
		os.Exit(1)
	}

	app, err := tui.NewApp(projectDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// tea.NewProgram creates a new bubbletea application
	p := tea.NewProgram(
		app,
		tea.WithAltScreen(), // Use alternate screen buffer (like vim does)
	)

	// Run blocks until the user quits
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
