package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slicerlogic/internal/config"
	"slicerlogic/internal/daemon"
	"slicerlogic/internal/global"
	"slicerlogic/internal/lifecycle"
	"slicerlogic/internal/logctx"
)

func RunMode(ctx context.Context, commandname string, args []string) {
	var configPath string
	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	SetGlobalArguments(commandFlags)
	SetCommon(commandFlags, &configPath)

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, global.CmdOpts)
	}
	commandFlags.Parse(args)

	fileCfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	daemonConfig, err := fileCfg.NewDaemonConf()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Command line verbosity wins when it asks for more
	if fileCfg.LogLevel > global.Verbosity {
		logctx.SetLogLevel(ctx, fileCfg.LogLevel)
	} else {
		logctx.SetLogLevel(ctx, global.Verbosity)
	}

	appDaemon := daemon.NewDaemon(daemonConfig)
	err = appDaemon.Start(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting daemon: %v\n", err)
		os.Exit(1)
	}

	err = lifecycle.NotifyReady(ctx)
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"failed to notify service manager of readiness: %v\n", err)
	}

	go lifecycle.SignalHandler(ctx, appDaemon)

	err = appDaemon.Run()
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "main loop exited: %v\n", err)
	}
	appDaemon.Shutdown()
}
