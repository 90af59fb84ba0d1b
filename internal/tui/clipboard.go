package tui

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"cpgantt/internal/model"
)

// rowsTSV formats rows as tab-separated text with a header line, ready to paste into a
// spreadsheet. Open checkpoints are empty cells.
func rowsTSV(rows []model.Row) string {
	date := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	}
	var b strings.Builder
	b.WriteString("team\tproject\tcp3\tcp3.5\tcp4\tcp5\n")
	for _, r := range rows {
		cp3 := r.CP3
		b.WriteString(strings.Join([]string{
			r.Team, r.Project, date(&cp3), date(r.CP35), date(r.CP4), date(r.CP5),
		}, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}

func copyToClipboard(s string) error {
	s = strings.ReplaceAll(s, "\r\n", "\n")

	switch runtime.GOOS {
	case "darwin":
		return runClipboardCmd("pbcopy", nil, s)
	case "windows":
		// clip.exe, else PowerShell.
		if err := runClipboardCmd("cmd", []string{"/c", "clip"}, s); err == nil {
			return nil
		}
		return runClipboardCmd("powershell", []string{"-NoProfile", "-Command", "Set-Clipboard"}, s)
	default:
		// Wayland first, then X11.
		if err := runClipboardCmd("wl-copy", nil, s); err == nil {
			return nil
		}
		if err := runClipboardCmd("xclip", []string{"-selection", "clipboard"}, s); err == nil {
			return nil
		}
		return runClipboardCmd("xsel", []string{"--clipboard", "--input"}, s)
	}
}

func runClipboardCmd(name string, args []string, stdin string) error {
	if _, err := exec.LookPath(name); err != nil {
		return err
	}
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	if err := cmd.Run(); err != nil {
		return errors.New(name + ": " + err.Error())
	}
	return nil
}
