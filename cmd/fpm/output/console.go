package output

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Verbosity controls how much a Console prints.
type Verbosity int

const (
	// VerbosityQuiet shows errors only.
	VerbosityQuiet Verbosity = iota
	// VerbosityNormal shows errors, warnings, and key operations.
	VerbosityNormal
	// VerbosityDetailed adds progress detail.
	VerbosityDetailed
	// VerbosityDiagnostic is the most verbose level; the resolution
	// core logs at the Verbose level under it.
	VerbosityDiagnostic
)

// Console is the CLI's output abstraction. It implements io.Writer so
// it can back an observability.Logger's sink directly.
type Console struct {
	out       io.Writer
	err       io.Writer
	verbosity Verbosity
	mu        sync.Mutex
	colors    bool
}

// NewConsole builds a Console at the given verbosity.
func NewConsole(out, err io.Writer, verbosity Verbosity) *Console {
	c := &Console{out: out, err: err, verbosity: verbosity, colors: IsColorEnabled()}
	if !c.colors {
		DisableColors()
	}
	return c
}

// DefaultConsole builds a Console on stdout/stderr at normal verbosity.
func DefaultConsole() *Console {
	return NewConsole(os.Stdout, os.Stderr, VerbosityNormal)
}

// SetVerbosity changes the active verbosity level.
func (c *Console) SetVerbosity(v Verbosity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verbosity = v
}

// Write implements io.Writer, so a Console can back a Tree's logger
// sink directly; everything written this way is unconditional.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.Write(p)
}

// Println writes a line to standard output.
func (c *Console) Println(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, a...)
}

// Print writes to standard output without a trailing newline.
func (c *Console) Print(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprint(c.out, a...)
}

// Success writes a success message in green.
func (c *Console) Success(format string, a ...any) {
	if c.verbosity < VerbosityNormal {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.colors {
		_, _ = ColorSuccess.Fprintf(c.out, format+"\n", a...)
	} else {
		_, _ = fmt.Fprintf(c.out, format+"\n", a...)
	}
}

// Error writes an error message in red, to standard error.
func (c *Console) Error(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.colors {
		_, _ = ColorError.Fprintf(c.err, "Error: "+format+"\n", a...)
	} else {
		_, _ = fmt.Fprintf(c.err, "Error: "+format+"\n", a...)
	}
}

// Warning writes a warning message in yellow.
func (c *Console) Warning(format string, a ...any) {
	if c.verbosity < VerbosityNormal {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.colors {
		_, _ = ColorWarning.Fprintf(c.out, "Warning: "+format+"\n", a...)
	} else {
		_, _ = fmt.Fprintf(c.out, "Warning: "+format+"\n", a...)
	}
}

// Info writes an informational message in cyan.
func (c *Console) Info(format string, a ...any) {
	if c.verbosity < VerbosityNormal {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.colors {
		_, _ = ColorInfo.Fprintf(c.out, format+"\n", a...)
	} else {
		_, _ = fmt.Fprintf(c.out, format+"\n", a...)
	}
}

// Detail writes a detailed-progress message, shown at
// VerbosityDetailed and above.
func (c *Console) Detail(format string, a ...any) {
	if c.verbosity < VerbosityDetailed {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.out, format+"\n", a...)
}

// NodeVerbosity maps a Console's Verbosity to the integer level
// depgraph.Tree.Verbosity expects: 0 suppresses Tree diagnostics
// entirely, >0 enables them.
func (c *Console) NodeVerbosity() int {
	if c.verbosity >= VerbosityDetailed {
		return int(c.verbosity)
	}
	return 0
}
