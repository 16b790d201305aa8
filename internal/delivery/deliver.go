package delivery

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moltpulse/moltpulse/internal/model"
)

// Deliverer writes a rendered report to one channel.
type Deliverer interface {
	Channel() string
	Deliver(rep *model.Report, rendered string, format string) (string, error)
}

// FileDeliverer writes reports into a directory, one timestamped file
// per run.
type FileDeliverer struct {
	Dir string
}

func (f *FileDeliverer) Channel() string { return "file" }

// Deliver writes the rendering and returns the path it wrote.
func (f *FileDeliverer) Deliver(rep *model.Report, rendered string, format string) (string, error) {
	dir := f.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home: %w", err)
		}
		dir = filepath.Join(home, "moltpulse-reports")
	}
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	ext := "md"
	if format == "json" {
		ext = "json"
	}
	name := fmt.Sprintf("%s_%s_%s.%s",
		rep.Domain, rep.ReportType, time.Now().Format("20060102_150405"), ext)
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// ConsoleDeliverer prints the rendering to a writer, normally stdout.
type ConsoleDeliverer struct {
	Out io.Writer
}

func (c *ConsoleDeliverer) Channel() string { return "console" }

func (c *ConsoleDeliverer) Deliver(rep *model.Report, rendered string, format string) (string, error) {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	if _, err := fmt.Fprintln(out, rendered); err != nil {
		return "", err
	}
	return "console", nil
}

// ForChannel resolves a channel name to its deliverer. Unknown
// channels fall back to console so a typo never loses a report.
func ForChannel(channel, fileDir string) Deliverer {
	switch channel {
	case "file":
		return &FileDeliverer{Dir: fileDir}
	default:
		return &ConsoleDeliverer{}
	}
}
