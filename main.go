package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"acejump/internal/buffers"
	"acejump/internal/config"
	"acejump/internal/discovery"
	"acejump/internal/domain"
	"acejump/internal/eventbus"
	"acejump/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

const scratchText = `AceJump scratch buffer

Press ctrl+j and type a few characters of any word on screen.
Every match gets a label; type the label to move the caret there.
Press ctrl+j again to cycle modes, ? for help, q to quit.
`

func main() {
	var (
		configPath string
		logPath    string
		initConfig bool
	)
	flag.StringVar(&configPath, "config", "", "Path to the configuration file (default: user config dir)")
	flag.StringVar(&configPath, "c", "", "Path to the configuration file (shorthand)")
	flag.StringVar(&logPath, "log", "acejump.log", "Path to the log file")
	flag.BoolVar(&initConfig, "init", false, "Write the default configuration file and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [file|dir ...]\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintln(flag.CommandLine.Output(), "Opens each file in its own pane and jumps between them with typed labels.")
		fmt.Fprintln(flag.CommandLine.Output())
		flag.PrintDefaults()
	}
	flag.Parse()

	// Set up logging
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Could not open log file: %v", err)
	} else {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	// Create event bus
	bus := eventbus.New()
	defer bus.Close()

	configSvc := config.NewConfigService(bus)
	if configPath != "" {
		configSvc = config.NewConfigServiceAt(bus, configPath)
	}

	if initConfig {
		if err := configSvc.Save(config.DefaultConfig()); err != nil {
			fmt.Printf("Error writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", configSvc.Path())
		return
	}

	cfg, err := configSvc.Load()
	if err != nil {
		log.Printf("Error loading config: %v", err)
		fmt.Fprintf(os.Stderr, "Ignoring invalid config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, err := config.NewWatcher(bus, configSvc)
	if err != nil {
		log.Printf("Config reload disabled: %v", err)
	} else {
		if err := watcher.Start(ctx); err != nil {
			log.Printf("Config reload disabled: %v", err)
		}
		defer watcher.Close()
	}

	store := buffers.NewMemoryStore()
	scanner := discovery.NewScanner(bus, discovery.DefaultOptions())
	if err := openFiles(ctx, scanner, store, flag.Args()); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	// Create UI model
	uiModel := ui.NewModel(bus, cfg, store)
	defer uiModel.Manager().Close()

	// Create Bubble Tea program
	p := tea.NewProgram(uiModel, tea.WithAltScreen())
	uiModel.SetProgram(p)

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			p.Quit()
			cancel()
		case <-ctx.Done():
		}
	}()

	// Set up event forwarding to UI
	eventChan := make(chan eventbus.DomainEvent, 100)
	forward := func(e eventbus.DomainEvent) {
		select {
		case eventChan <- e:
		default:
			// Channel full, drop event
			log.Println("Event channel full, dropping event")
		}
	}
	for _, t := range []eventbus.EventType{
		eventbus.EventConfigChanged,
		eventbus.EventError,
		eventbus.EventBufferDisposed,
	} {
		bus.Subscribe(t, forward)
	}

	// Start forwarding events to UI in background
	go func() {
		for {
			select {
			case event := <-eventChan:
				p.Send(ui.EventMsg{Event: event})
			case <-ctx.Done():
				return
			}
		}
	}()

	// Run the UI
	log.Printf("Starting UI with %d buffer(s)...", len(store.IDs()))
	if _, err := p.Run(); err != nil {
		log.Printf("Error running program: %v", err)
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
	log.Printf("UI exited normally")
}

// openFiles loads every path into its own buffer. Directories are expanded
// into the text files below them. A path that does not exist yet opens
// empty and is created on save.
func openFiles(ctx context.Context, scanner *discovery.Scanner, store *buffers.MemoryStore, args []string) error {
	paths, err := scanner.Expand(ctx, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		store.Open("scratch", "", scratchText)
		return nil
	}

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		data, err := os.ReadFile(abs)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		store.Open(domain.BufferID(abs), abs, string(data))
		log.Printf("Opened %s", abs)
	}
	return nil
}
