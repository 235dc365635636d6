package server

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/srnotes/sr/go/config"
)

// terminal launchers probed for when no edit_command is configured.
var terminals = []string{"kitty -e", "alacritty -e", "foot", "xterm -e"}

// buildEditCommand expands the configured edit_command's {file} and {line}
// placeholders, or falls back to $EDITOR inside the first terminal emulator
// found on PATH.
func buildEditCommand(settings config.Settings, file string, line int) string {
	if settings.EditCommand != "" {
		var cmd = strings.ReplaceAll(settings.EditCommand, "{file}", shellQuote(file))
		return strings.ReplaceAll(cmd, "{line}", strconv.Itoa(line))
	}

	var editor = os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}
	for _, term := range terminals {
		if _, err := exec.LookPath(strings.Fields(term)[0]); err == nil {
			return fmt.Sprintf("%s %s +%d %s", term, editor, line, shellQuote(file))
		}
	}
	return fmt.Sprintf("%s +%d %s", editor, line, shellQuote(file))
}

// spawnEdit launches the edit command detached, in its own session, so it
// outlives the server.
func spawnEdit(settings config.Settings, file string, line int) error {
	var cmd = exec.Command("/bin/sh", "-c", buildEditCommand(settings, file, line))
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launching editor: %w", err)
	}
	go cmd.Wait()
	return nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
