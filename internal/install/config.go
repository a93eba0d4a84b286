package install

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slicerlogic/internal/config"
	"strings"

	"golang.org/x/term"
)

// Writes the template config unless one exists and the user declines overwriting it
func installConfig(path string, input io.Reader) (err error) {
	err = os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		err = fmt.Errorf("failed to create configuration directory: %w", err)
		return
	}

	if _, statErr := os.Stat(path); statErr == nil {
		// No terminal - no overwrite
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Printf("Existing configuration file present, not overwriting\n")
			return
		}

		fmt.Printf("Configuration file already exists at '%s'. Are you SURE you want to overwrite it? (yes/no): ", path)
		answer, _ := bufio.NewReader(input).ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
			fmt.Printf("Not overwriting configuration file\n")
			return
		}
	}

	err = config.WriteTemplate(path)
	if err != nil {
		return
	}
	fmt.Printf("Successfully wrote template configuration file to '%s'\n", path)
	return
}
