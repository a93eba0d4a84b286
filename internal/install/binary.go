package install

import (
	"fmt"
	"io"
	"os"
	"slicerlogic/internal/global"
)

// Copies the running executable into place. Copying keeps the invoked file usable.
func installBinary() (err error) {
	selfPath, err := os.Executable()
	if err != nil {
		return
	}
	if selfPath == global.DefaultBinaryPath {
		return
	}

	source, err := os.Open(selfPath)
	if err != nil {
		return
	}
	defer source.Close()

	tmp := global.DefaultBinaryPath + ".new"
	destination, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		err = fmt.Errorf("failed to create %s: %w", tmp, err)
		return
	}
	_, err = io.Copy(destination, source)
	closeErr := destination.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		err = fmt.Errorf("failed to copy binary: %w", err)
		return
	}

	err = os.Rename(tmp, global.DefaultBinaryPath)
	if err != nil {
		err = fmt.Errorf("failed to move: %w", err)
		return
	}

	fmt.Printf("Successfully installed binary to '%s'\n", global.DefaultBinaryPath)
	return
}

func uninstallBinary() (err error) {
	err = os.Remove(global.DefaultBinaryPath)
	if err != nil && !os.IsNotExist(err) {
		return
	}
	err = nil

	fmt.Printf("Successfully removed binary from '%s'\n", global.DefaultBinaryPath)
	return
}
