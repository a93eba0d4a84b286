package cli

import (
	"flag"
	"fmt"
	"os"
	"slicerlogic/internal/config"
	"slicerlogic/internal/global"
	"slicerlogic/internal/install"
)

// Setup/installation options
func SetupMode(cliOpts *global.CommandSet, commandname string, args []string) {
	var installDaemon bool
	var uninstallDaemon bool
	var templateConfPath string

	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	commandFlags.BoolVar(&installDaemon, "install", false, "Install/Upgrade the daemon, its service unit and a template config")
	commandFlags.BoolVar(&uninstallDaemon, "uninstall", false, "Remove the daemon and its service unit")
	commandFlags.StringVar(&templateConfPath, "t", "", "Write a template config file to this path (.json, .yaml or .yml)")
	commandFlags.StringVar(&templateConfPath, "template", "", "Write a template config file to this path (.json, .yaml or .yml)")

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
	}
	if len(args) < 1 {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
		os.Exit(1)
	}
	commandFlags.Parse(args)

	var err error

	if templateConfPath != "" {
		err = config.WriteTemplate(templateConfPath)
	} else if installDaemon {
		err = install.Run()
	} else if uninstallDaemon {
		err = install.Remove()
	} else {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
