// Installs the binary, a template configuration and the systemd service
package install

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"os"
	"slicerlogic/internal/global"
	"strings"

	"golang.org/x/term"
)

// Read in installation static files at compile time
//
//go:embed static-files/*
var installationFiles embed.FS

// Full installation (idempotent)
func Run() (err error) {
	if os.Geteuid() != 0 {
		err = fmt.Errorf("installation must be run as root")
		return
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"installing binary", installBinary},
		{"writing template config", func() error { return installConfig(global.DefaultConfigPath, os.Stdin) }},
		{"installing systemd service", func() error { return installService(global.DefaultUnitPath) }},
	}
	for _, step := range steps {
		err = step.fn()
		if err != nil {
			err = fmt.Errorf("%s: %w", step.name, err)
			return
		}
	}

	fmt.Printf("Installation completed successfully\n")
	return
}

// Full uninstall. Each step is attempted even when an earlier one fails.
func Remove() (err error) {
	if !confirm(os.Stdin, "Are you SURE you want to uninstall? (this will remove the configuration file and cache)") {
		fmt.Printf("Aborting uninstall\n")
		return
	}

	if os.Geteuid() != 0 {
		err = fmt.Errorf("uninstall must be run as root")
		return
	}

	if stepErr := uninstallService(global.DefaultUnitPath); stepErr != nil {
		fmt.Fprintf(os.Stderr, "Error with Systemd service: %v\n", stepErr)
	}
	if stepErr := uninstallBinary(); stepErr != nil {
		fmt.Fprintf(os.Stderr, "Error removing binary: %v\n", stepErr)
	}
	if stepErr := os.Remove(global.DefaultConfigPath); stepErr != nil && !os.IsNotExist(stepErr) {
		fmt.Fprintf(os.Stderr, "Error removing config: %v\n", stepErr)
	}

	// Cache and state are best effort
	os.RemoveAll(global.DefaultCacheDir)
	os.RemoveAll(global.DefaultStateDir)
	return
}

// Asks a yes/no question on terminals. Non-interactive runs always answer yes.
func confirm(input io.Reader, question string) (yes bool) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		yes = true
		return
	}
	fmt.Printf("%s (yes/no): ", question)
	answer, _ := bufio.NewReader(input).ReadString('\n')
	yes = strings.ToLower(strings.TrimSpace(answer)) == "yes"
	return
}
