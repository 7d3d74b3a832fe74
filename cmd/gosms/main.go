// Package main implements the gosms Sega Master System emulator executable.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"gosms/internal/app"
	"gosms/internal/graphics"
	"gosms/internal/statsview"
	"gosms/internal/version"

	"github.com/retroenv/retrogolib/log"
)

// frames run by -nogui when -frames is not given
const defaultHeadlessFrames = 120

type options struct {
	rom        string
	config     string
	debug      bool
	quiet      bool
	nogui      bool
	frames     int
	region     string
	backend    string
	dumpDir    string
	statsview  bool
	version    bool
	help       bool
	saveConfig bool
}

func main() {
	opts, err := readArguments(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if opts.help {
		printUsage(os.Stdout, flag.CommandLine)
		return
	}
	if opts.version {
		version.PrintBuildInfo(os.Stdout)
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "gosms: %v\n", err)
		os.Exit(1)
	}
}

func readArguments(flags *flag.FlagSet, args []string) (options, error) {
	var opts options
	flags.StringVar(&opts.rom, "rom", "", "path to the cartridge image")
	flags.StringVar(&opts.config, "config", "", "path to the configuration file")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug output")
	flags.BoolVar(&opts.quiet, "quiet", false, "only output errors")
	flags.BoolVar(&opts.nogui, "nogui", false, "run without a window (headless mode)")
	flags.IntVar(&opts.frames, "frames", 0, "number of frames to run, 0 runs until closed")
	flags.StringVar(&opts.region, "region", "", "force the region: auto, ntsc or pal")
	flags.StringVar(&opts.backend, "backend", "", "video backend: ebitengine, headless or terminal")
	flags.StringVar(&opts.dumpDir, "dump", "", "dump frames as BMP images into this directory")
	flags.BoolVar(&opts.statsview, "statsview", false, "launch the runtime statistics server")
	flags.BoolVar(&opts.saveConfig, "saveconfig", false, "write the effective configuration back to the config file")
	flags.BoolVar(&opts.version, "version", false, "show version information")
	flags.BoolVar(&opts.help, "help", false, "show help message")

	err := flags.Parse(args)
	return opts, err
}

// applyOptions overrides configuration values with command line options
func applyOptions(config *app.Config, opts options) {
	switch {
	case opts.debug:
		config.Debug.LogLevel = "debug"
	case opts.quiet:
		config.Debug.LogLevel = "error"
	}

	if opts.backend != "" {
		config.Video.Backend = opts.backend
	}
	if opts.nogui {
		config.Video.Backend = string(graphics.BackendHeadless)
		if opts.frames == 0 && config.Emulation.Frames == 0 {
			config.Emulation.Frames = defaultHeadlessFrames
		}
	}
	if opts.frames > 0 {
		config.Emulation.Frames = opts.frames
	}
	if opts.region != "" {
		config.Emulation.Region = opts.region
	}
	if opts.dumpDir != "" {
		config.Debug.DumpFrames = true
		config.Paths.Dumps = opts.dumpDir
	}
	if opts.statsview {
		config.Debug.Statsview = true
	}
}

func run(opts options) error {
	if opts.rom == "" {
		return errors.New("no ROM given, use -rom <file>")
	}

	configPath := opts.config
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}

	config := app.NewConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	applyOptions(config, opts)

	logger, err := app.CreateLogger(config.Debug.LogLevel)
	if err != nil {
		return err
	}

	if opts.saveConfig {
		if err := config.Save(); err != nil {
			return err
		}
	}

	if config.Debug.Statsview {
		statsview.Launch(os.Stdout, statsview.DefaultAddress)
	}

	application, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Cleanup(); err != nil {
			logger.Error("Application cleanup failed", log.Err(err))
		}
	}()

	setupGracefulShutdown(application)

	if err := application.LoadROM(opts.rom); err != nil {
		return err
	}

	info := application.System().SystemInfo()
	logger.Info("Starting emulation",
		log.String("backend", config.Video.Backend),
		log.String("region", info.Region.String()),
		log.String("fps", fmt.Sprintf("%.2f", info.FPS)))

	if err := application.Run(); err != nil {
		return err
	}

	logger.Info("Emulator shutting down", log.Int("frames", int(application.GetFrameCount())))
	return nil
}

// setupGracefulShutdown stops the main loop on interrupt
func setupGracefulShutdown(application *app.Application) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		application.Stop()
	}()
}

func printUsage(w io.Writer, flags *flag.FlagSet) {
	fmt.Fprintln(w, "gosms - Sega Master System emulator")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  gosms -rom <file> [options]")
	fmt.Fprintln(w, "  gosms -nogui -rom <file> -frames 300 -dump ./dumps")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	flags.SetOutput(w)
	flags.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "CONTROLS:")
	fmt.Fprintln(w, "  Player 1:   Arrow keys, Z (button 1), X (button 2)")
	fmt.Fprintln(w, "  Player 2:   W A S D, N (button 1), M (button 2)")
	fmt.Fprintln(w, "  Backspace   Console reset button")
	fmt.Fprintln(w, "  P           Pause")
	fmt.Fprintln(w, "  F5          Save a machine state snapshot")
	fmt.Fprintln(w, "  F12         Screenshot")
	fmt.Fprintln(w, "  Escape      Quit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "CONFIGURATION:")
	fmt.Fprintf(w, "  Config file: %s\n", app.GetDefaultConfigPath())
}
