package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/quotetpl/quotetpl/internal/cli"
	"github.com/quotetpl/quotetpl/internal/config"
	"github.com/quotetpl/quotetpl/internal/service"
	"github.com/quotetpl/quotetpl/internal/storage"
	"github.com/quotetpl/quotetpl/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

func printHelp() {
	fmt.Printf(`quotetpl - Terminal-based document templating

USAGE:
    quotetpl [OPTIONS] [COMMAND]

OPTIONS:
    --help          Show this help information
    --version       Print version information
    --init          Initialize the template library

COMMANDS:
    (no command)       Start interactive TUI mode
    list, ls           List templates
    search <query>     Search templates
    show [id]          Show a template in detail
    open <id>          Switch the active template
    new                Import a document as a template
    rename <name>      Rename the active template
    delete, rm <id>    Delete a template
    direction          Show or set the text direction
    field              Field management (find, add, list, apply, set, rm)
    set <id> <value>   Record a field's input value
    values             Print computed values
    const              Constant management (add, list, set, rm)
    preset             Preset management (save, list, load, rm)
    export             Write the template interchange file
    import <file>      Load an interchange file
    render             Print the filled document
    pdf                Export the filled document as a PDF
    copy               Copy the filled text to clipboard
    help               Show CLI command help

EXAMPLES:
    quotetpl                                  # Start interactive mode
    quotetpl new --name "Quote" --docx q.docx # Import a document
    quotetpl field find "Acme Ltd"            # Locate text to anchor
    quotetpl field add --start 12 --end 20 --name client --all
    quotetpl set <fieldId> "Acme Ltd"         # Fill in a value
    quotetpl render                           # Print the filled document
    quotetpl pdf -o quote.pdf                 # Export as PDF

STORAGE:
    Default directory: ~/.quotetpl
    Override with: QUOTETPL_DIR=<path>
`)
}

func main() {
	var showVersion bool
	var initLib bool
	var showHelp bool

	flag.BoolVar(&showVersion, "version", false, "Print version information")
	flag.BoolVar(&initLib, "init", false, "Initialize the template library")
	flag.BoolVar(&showHelp, "help", false, "Show help information")
	flag.Parse()

	if showHelp {
		printHelp()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("quotetpl version %s\n", service.Version)
		os.Exit(0)
	}

	dataDir, err := config.DataDir()
	if err != nil {
		fmt.Println(err)
		return
	}
	cfg, err := config.Load(dataDir)
	if err != nil {
		fmt.Println(err)
		return
	}

	store, err := storage.NewStore(dataDir)
	if err != nil {
		fmt.Println(err)
		return
	}

	session, err := service.NewSession(store, cfg)
	if err != nil {
		store.Close()
		fmt.Println(err)
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}()

	if initLib {
		if err := cfg.Save(dataDir); err != nil {
			fmt.Println("Error initializing library:", err)
			return
		}
		fmt.Printf("Initialized template library in %s\n", dataDir)
		return
	}

	args := flag.Args()
	if len(args) > 0 {
		// CLI mode - execute command and exit
		cliHandler := cli.NewCLI(session)
		if err := cliHandler.ExecuteCommand(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// No arguments provided - start TUI mode
	model := ui.NewModel(session)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Println(err)
		return
	}
}
