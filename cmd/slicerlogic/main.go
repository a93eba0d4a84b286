package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"slicerlogic/internal/cli"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
)

func main() {
	global.CmdOpts = cli.DefineOptions()

	args := os.Args
	commandFlags := flag.NewFlagSet(args[0], flag.ExitOnError)
	requestedLogLevel := cli.SetGlobalArguments(commandFlags)

	commandFlags.Usage = func() {
		cli.PrintHelpMenu(commandFlags, cli.RootCLICommand, global.CmdOpts)
	}
	if len(args) < 2 {
		cli.PrintHelpMenu(commandFlags, cli.RootCLICommand, global.CmdOpts)
		os.Exit(1)
	}

	// Retrieve command and args
	command := args[1]
	args = args[2:]

	// Setting global logging
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := logctx.NewLogger("global", *requestedLogLevel, ctx.Done())
	ctx = logctx.WithLogger(ctx, logger)
	logctx.StartWatcher(logger, os.Stdout)

	switch command {
	case "run":
		cli.RunMode(ctx, command, args)
	case "load":
		cli.LoadMode(ctx, command, args)
	case "configure":
		cli.SetupMode(global.CmdOpts, command, args)
	case "version":
		if len(args) > 0 && (args[0] == "--verbosity" || args[0] == "-v") {
			fmt.Printf("%s %s\n", global.ProgName, global.ProgVersion)
			fmt.Printf("Built using %s(%s) for %s on %s\n", runtime.Version(), runtime.Compiler, runtime.GOOS, runtime.GOARCH)
		} else {
			fmt.Println(global.ProgVersion)
		}
	case "-h", "--help", "help":
		cli.PrintHelpMenu(commandFlags, cli.RootCLICommand, global.CmdOpts)
	default:
		cli.PrintHelpMenu(commandFlags, cli.RootCLICommand, global.CmdOpts)
		os.Exit(1)
	}

	// Finish up any stdout writes for global logger
	cancel()
	logger.Wake()
	logger.Wait()
}
