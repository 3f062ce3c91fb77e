package printer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Driver sends raw jobs to printers and queries them.
type Driver interface {
	Print(ctx context.Context, printer string, data []byte) error
	Status(ctx context.Context, printer string) (string, error)
	List(ctx context.Context) (string, error)
}

// Runner executes a command with stdin and returns its stdout.
type Runner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

// CUPSDriver talks to CUPS through the lp and lpstat commands.
type CUPSDriver struct {
	run Runner
}

// NewCUPSDriver creates a driver that shells out to CUPS. A nil runner uses os/exec.
func NewCUPSDriver(run Runner) *CUPSDriver {
	if run == nil {
		run = execRunner
	}
	return &CUPSDriver{run: run}
}

func execRunner(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func (d *CUPSDriver) Print(ctx context.Context, printer string, data []byte) error {
	_, err := d.run(ctx, data, "lp", "-d", printer, "-o", "raw")
	return err
}

func (d *CUPSDriver) Status(ctx context.Context, printer string) (string, error) {
	out, err := d.run(ctx, nil, "lpstat", "-p", printer)
	return string(out), err
}

func (d *CUPSDriver) List(ctx context.Context) (string, error) {
	out, err := d.run(ctx, nil, "lpstat", "-p")
	return string(out), err
}

// Status is the parsed state of one printer.
type Status struct {
	Printer    string `json:"printer"`
	IsIdle     bool   `json:"is_idle"`
	IsPrinting bool   `json:"is_printing"`
	IsDisabled bool   `json:"is_disabled"`
	Status     string `json:"status"`
	Raw        string `json:"raw,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ParseStatus reads `lpstat -p <printer>` output.
func ParseStatus(printer, raw string) Status {
	s := Status{
		Printer:    printer,
		IsIdle:     strings.Contains(raw, "idle"),
		IsPrinting: strings.Contains(raw, "printing"),
		IsDisabled: strings.Contains(raw, "disabled"),
		Raw:        raw,
	}
	switch {
	case s.IsIdle:
		s.Status = "ready"
	case s.IsPrinting:
		s.Status = "printing"
	default:
		s.Status = "error"
	}
	return s
}

var printerLine = regexp.MustCompile(`^printer (\S+)`)

// ParsePrinterList extracts printer names from `lpstat -p` output.
func ParsePrinterList(raw string) []string {
	names := []string{}
	for _, line := range strings.Split(raw, "\n") {
		if m := printerLine.FindStringSubmatch(line); m != nil {
			names = append(names, m[1])
		}
	}
	return names
}
