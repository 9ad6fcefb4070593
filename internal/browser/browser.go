// Package browser hands files and URLs to the host's default application.
// It is the host-side save-as collaborator used after a download has been written.
package browser

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

// openers lists Linux commands tried in order when open-golang fails.
var openers = []string{"xdg-open", "gio", "x-www-browser", "www-browser"}

// OpenFile opens the file at path with the default application.
// It first attempts to use a platform-agnostic library and falls back to
// platform-specific commands if that fails.
func OpenFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("browser: resolve path: %w", err)
	}
	return OpenURL(abs)
}

// OpenURL opens the specified URL or path with the default handler.
func OpenURL(target string) error {
	err := open.Run(target)
	if err == nil {
		log.Debugf("opened %s using open-golang library", target)
		return nil
	}

	log.Debugf("open-golang failed: %v, trying platform-specific commands", err)
	return openPlatformSpecific(target)
}

func openPlatformSpecific(target string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	case "linux":
		for _, name := range openers {
			if _, err := exec.LookPath(name); err == nil {
				if name == "gio" {
					cmd = exec.Command(name, "open", target)
				} else {
					cmd = exec.Command(name, target)
				}
				break
			}
		}
		if cmd == nil {
			return fmt.Errorf("no suitable opener found on Linux system")
		}
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	log.Debugf("Running command: %s %v", cmd.Path, cmd.Args[1:])
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start opener command: %w", err)
	}
	return nil
}

// IsAvailable reports whether the host has a command able to open files.
func IsAvailable() bool {
	switch runtime.GOOS {
	case "darwin":
		_, err := exec.LookPath("open")
		return err == nil
	case "windows":
		_, err := exec.LookPath("rundll32")
		return err == nil
	case "linux":
		for _, name := range openers {
			if _, err := exec.LookPath(name); err == nil {
				return true
			}
		}
		return false
	default:
		return false
	}
}
