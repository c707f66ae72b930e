// bsptool is a CLI utility for inspecting Source engine BSP map files.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/romain-durban/bsploader/internal/config"
	"github.com/romain-durban/bsploader/internal/logger"
)

// errUsage makes main print the usage text after the error.
var errUsage = errors.New("invalid usage")

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	opts := logger.Options{
		Level:   cfg.Logging.Level,
		Console: os.Stderr,
		Color:   cfg.Logging.Color,
	}
	if cfg.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.Init(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	logger.Sugar.Debugf("Config: %+v", *cfg)

	a := &app{cfg: cfg, log: logger.Named("bsptool"), out: os.Stdout}
	logger.Debug("running command", zap.String("command", args[0]), zap.Strings("args", args[1:]))

	start := time.Now()
	err = a.run(args[0], args[1:])
	logger.Info("command finished",
		zap.String("command", args[0]),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("ok", err == nil))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
		}
		logger.Sync()
		os.Exit(1)
	}
}

// run dispatches a command.
func (a *app) run(command string, args []string) error {
	switch command {
	case "info":
		return a.cmdInfo(args)
	case "lumps":
		return a.cmdLumps(args)
	case "dump":
		return a.cmdDump(args)
	case "textures", "tex":
		return a.cmdTextures(args)
	case "pak":
		return a.cmdPak(args)
	case "config":
		return a.cmdConfig(args)
	case "help", "-h", "--help":
		printUsage(a.out)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `bsptool - Source engine BSP map utility

Usage:
  bsptool [flags] <command> [options]

Commands:
  info <map.bsp>                         Show header, checksum and record counts
  lumps [-a] <map.bsp>                   List the lump directory
  dump <kind> <map.bsp>                  Print decoded records of one lump
  textures <map.bsp>                     List texture names and their use count
  pak list <map.bsp>                     List files embedded in the pakfile lump
  pak extract <map.bsp> <path> [output]  Extract pakfile entries (glob patterns allowed)
  config [save [path]]                   Print or save the effective config

Dump kinds:
  planes vertexes edges surfedges faces nodes leafs leaffaces leafbrushes
  texinfo texdata brushes brushsides models

Flags:
  -config <path>    Config file (default: ./bsptool.yaml, then user config dir)
  -debug            Enable debug logging
  -log-file <path>  Write logs to a rotating file
  -format text|yaml Output format for info, lumps, dump and textures
  -limit N          Max records per dump (0 for all)
  -encoding <name>  Texture name encoding: utf-8, windows-1252, iso-8859-1

Maps compressed with gzip or zstd are decoded transparently.

Examples:
  bsptool info de_dust2.bsp
  bsptool -format yaml dump planes de_dust2.bsp.zst
  bsptool pak extract de_dust2.bsp "*.vmt" ./materials`)
}
