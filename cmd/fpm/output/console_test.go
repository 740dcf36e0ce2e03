package output_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/awvwgk/fortran-package-manager/cmd/fpm/output"
)

func TestConsole_VerbosityGatesDetail(t *testing.T) {
	var out bytes.Buffer
	c := output.NewConsole(&out, &out, output.VerbosityNormal)

	c.Detail("should not appear")
	assert.Empty(t, out.String())

	c.SetVerbosity(output.VerbosityDetailed)
	c.Detail("now it does")
	assert.Contains(t, out.String(), "now it does")
}

func TestConsole_QuietSuppressesSuccessAndWarning(t *testing.T) {
	var out bytes.Buffer
	c := output.NewConsole(&out, &out, output.VerbosityQuiet)

	c.Success("built %d packages", 3)
	c.Warning("stale cache")
	c.Info("resolving")
	assert.Empty(t, out.String())
}

func TestConsole_ErrorAlwaysWritesRegardlessOfVerbosity(t *testing.T) {
	var errBuf bytes.Buffer
	c := output.NewConsole(&bytes.Buffer{}, &errBuf, output.VerbosityQuiet)

	c.Error("manifest missing: %s", "fpm.toml")
	assert.Contains(t, errBuf.String(), "manifest missing: fpm.toml")
}

func TestConsole_WriteImplementsIOWriter(t *testing.T) {
	var out bytes.Buffer
	c := output.NewConsole(&out, &bytes.Buffer{}, output.VerbosityNormal)

	n, err := c.Write([]byte("raw bytes"))
	assert.NoError(t, err)
	assert.Equal(t, len("raw bytes"), n)
	assert.Equal(t, "raw bytes", out.String())
}

func TestConsole_NodeVerbosityMapping(t *testing.T) {
	var out bytes.Buffer

	c := output.NewConsole(&out, &out, output.VerbosityNormal)
	assert.Equal(t, 0, c.NodeVerbosity())

	c.SetVerbosity(output.VerbosityDiagnostic)
	assert.Equal(t, int(output.VerbosityDiagnostic), c.NodeVerbosity())
}
