// pkg/logging/console.go - colored, user-facing terminal output

package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGreen  = "\033[32m"
)

// Console prints operator-facing messages. Unlike Logger it writes
// synchronously so output ordering follows the program flow.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

// NewConsole creates a Console on stdout, enabling ANSI colors where the
// terminal supports them.
func NewConsole() *Console {
	return &Console{
		out:   os.Stdout,
		color: enableColors(),
	}
}

// NewConsoleWriter creates a Console on w without colors.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

func (c *Console) colorPrintf(color, format string, v ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := fmt.Sprintf(format, v...)
	if c.color {
		fmt.Fprintf(c.out, "%s%s%s\n", color, msg, colorReset)
		return
	}
	fmt.Fprintln(c.out, msg)
}

// Println prints a regular line.
func (c *Console) Println(v ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, v...)
}

// Success prints a success message in green.
func (c *Console) Success(format string, v ...interface{}) {
	c.colorPrintf(colorGreen, format, v...)
}

// Warning prints a warning message in yellow.
func (c *Console) Warning(format string, v ...interface{}) {
	c.colorPrintf(colorYellow, "WARNING: "+format, v...)
}

// Error prints an error message in red.
func (c *Console) Error(format string, v ...interface{}) {
	c.colorPrintf(colorRed, "ERROR: "+format, v...)
}

// Heading prints a section heading in blue surrounded by blank lines.
func (c *Console) Heading(format string, v ...interface{}) {
	c.Println()
	c.colorPrintf(colorBlue, format, v...)
	c.Println()
}

// Writer exposes the underlying destination for table-style output.
func (c *Console) Writer() io.Writer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out
}
