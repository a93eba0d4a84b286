package install

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slicerlogic/internal/global"
	"strings"
)

// Unit file text with paths filled in
func renderUnit() (unit []byte, err error) {
	template, err := installationFiles.ReadFile("static-files/slicerlogic.service")
	if err != nil {
		err = fmt.Errorf("unable to retrieve unit file from embedded filesystem: %w", err)
		return
	}
	replacer := strings.NewReplacer(
		"$executableFilePath", global.DefaultBinaryPath,
		"$configFilePath", global.DefaultConfigPath,
	)
	unit = []byte(replacer.Replace(string(template)))
	return
}

func systemctl(args ...string) (output string, err error) {
	raw, err := exec.Command("systemctl", args...).CombinedOutput()
	output = strings.TrimSpace(string(raw))
	if err != nil {
		err = fmt.Errorf("systemctl %s: %w: %s", strings.Join(args, " "), err, output)
	}
	return
}

func installService(unitFilePath string) (err error) {
	unitName := filepath.Base(unitFilePath)

	unit, err := renderUnit()
	if err != nil {
		return
	}
	err = os.WriteFile(unitFilePath, unit, 0o644)
	if err != nil {
		return
	}

	_, err = systemctl("daemon-reload")
	if err != nil {
		return
	}

	// Disabled status is exit code 1
	status, _ := systemctl("is-enabled", unitName)
	if strings.ToLower(status) != "enabled" {
		_, err = systemctl("enable", unitName)
		if err != nil {
			return
		}
	}

	fmt.Printf("Successfully installed Systemd service\n")
	fmt.Printf("  IMPORTANT: modify the configuration to your needs and start the service with 'systemctl start %s'\n", unitName)
	return
}

func uninstallService(unitFilePath string) (err error) {
	unitName := filepath.Base(unitFilePath)

	status, _ := systemctl("is-enabled", unitName)
	if strings.ToLower(status) == "enabled" {
		_, err = systemctl("disable", unitName)
		if err != nil {
			return
		}
	}

	state, _ := systemctl("show", unitName, "--property=ActiveState")
	if strings.Contains(state, "active") && !strings.Contains(state, "inactive") {
		_, err = systemctl("stop", unitName)
		if err != nil {
			return
		}
	}

	err = os.Remove(unitFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			err = nil
		}
		return
	}

	_, err = systemctl("daemon-reload")
	if err != nil {
		return
	}
	fmt.Printf("Successfully uninstalled systemd service\n")
	return
}
