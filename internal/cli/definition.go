package cli

import "slicerlogic/internal/global"

func DefineOptions() (cmdOpts *global.CommandSet) {
	// Root level
	root := &global.CommandSet{
		Description:     "Slicer Application Logic Daemon (slicerlogic)",
		FullDescription: "  Schedules scene modification events and node data transfers outside of the main loop",
		CommandName:     RootCLICommand,
		ChildCommands:   make(map[string]*global.CommandSet),
	}

	// Daemon
	root.ChildCommands["run"] = &global.CommandSet{
		CommandName:     "run",
		Description:     "Run Daemon",
		FullDescription: "Starts the scheduler, its networking workers and the local control server",
	}

	// Client of a running daemon
	root.ChildCommands["load"] = &global.CommandSet{
		CommandName:     "load",
		UsageOption:     "<file>",
		Description:     "Queue Data Or Scene Load",
		FullDescription: "Asks a running daemon to read a data file into a node, or to import a scene file",
	}

	// Setup
	root.ChildCommands["configure"] = &global.CommandSet{
		CommandName:     "configure",
		Description:     "Setup Actions",
		FullDescription: "Write template configuration, install or remove the daemon",
	}

	// Version Info
	root.ChildCommands["version"] = &global.CommandSet{
		CommandName:     "version",
		Description:     "Show Version Information",
		FullDescription: "Display meta information about program",
	}

	cmdOpts = root
	return
}
