// Package browser provides cross-platform functionality for opening URLs in the default
// web browser, plus a clipboard fallback for when no browser can be launched.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"
	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

// linuxBrowsers are tried in order when open-golang cannot launch a browser on Linux.
var linuxBrowsers = []string{"xdg-open", "x-www-browser", "www-browser", "firefox", "chromium", "google-chrome"}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// OpenURL opens the specified URL in the default web browser.
// It first attempts to use a platform-agnostic library and falls back to
// platform-specific commands if that fails.
//
// Parameters:
//   - url: The URL to open
//
// Returns:
//   - error: An error if no launcher could be started
func OpenURL(url string) error {
	err := open.Run(url)
	if err == nil {
		log.Debug("Successfully opened URL using open-golang library")
		return nil
	}

	log.Debugf("open-golang failed: %v, trying platform-specific commands", err)
	return openURLPlatformSpecific(url)
}

// openURLPlatformSpecific opens a URL using OS-specific commands.
func openURLPlatformSpecific(url string) error {
	name, args, err := platformCommand(runtime.GOOS, url)
	if err != nil {
		return err
	}

	cmd := exec.Command(name, args...)
	log.Debugf("Running command: %s %v", cmd.Path, cmd.Args[1:])
	if err = cmd.Start(); err != nil {
		return fmt.Errorf("failed to start browser command: %w", err)
	}
	// Reap the launcher; its exit status says nothing about the browser itself.
	go func() {
		_ = cmd.Wait()
	}()

	log.Debug("Successfully opened URL using platform-specific command")
	return nil
}

// platformCommand returns the launcher command for goos.
func platformCommand(goos, url string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		for _, browser := range linuxBrowsers {
			if _, err := lookPath(browser); err == nil {
				return browser, []string{url}, nil
			}
		}
		return "", nil, fmt.Errorf("no suitable browser found on %s system", goos)
	default:
		return "", nil, fmt.Errorf("unsupported operating system: %s", goos)
	}
}

// IsAvailable reports whether a browser launcher exists on this system.
// Unlike OpenURL it has no side effects.
func IsAvailable() bool {
	_, _, err := platformCommand(runtime.GOOS, "")
	if err != nil {
		return false
	}
	switch runtime.GOOS {
	case "darwin":
		_, err = lookPath("open")
	case "windows":
		_, err = lookPath("rundll32")
	}
	return err == nil
}

// CopyToClipboard places text on the system clipboard. It fails when no clipboard
// utility is present, e.g. on headless hosts.
func CopyToClipboard(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard is not supported on this system")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}
