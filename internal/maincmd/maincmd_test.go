package maincmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxlang/clox/internal/maincmd"
)

func writeSource(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.lox")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestRunCommandSuccessExitsZero(t *testing.T) {
	path := writeSource(t, `print "hi";`)

	var out, errOut bytes.Buffer
	c := maincmd.Cmd{}
	code := c.Main([]string{"clox", "run", path}, mainer.Stdio{Stdout: &out, Stderr: &errOut})

	assert.Equal(t, mainer.ExitCode(0), code)
	assert.Equal(t, "hi\n", out.String())
}

func TestRunCommandCompileErrorExits65(t *testing.T) {
	path := writeSource(t, `var = 1;`)

	var out, errOut bytes.Buffer
	c := maincmd.Cmd{}
	code := c.Main([]string{"clox", "run", path}, mainer.Stdio{Stdout: &out, Stderr: &errOut})

	assert.Equal(t, mainer.ExitCode(65), code)
}

func TestRunCommandRuntimeErrorExits70(t *testing.T) {
	path := writeSource(t, `print nope;`)

	var out, errOut bytes.Buffer
	c := maincmd.Cmd{}
	code := c.Main([]string{"clox", "run", path}, mainer.Stdio{Stdout: &out, Stderr: &errOut})

	assert.Equal(t, mainer.ExitCode(70), code)
}

func TestRunCommandMissingFileExits74(t *testing.T) {
	var out, errOut bytes.Buffer
	c := maincmd.Cmd{}
	code := c.Main([]string{"clox", "run", filepath.Join(t.TempDir(), "missing.lox")}, mainer.Stdio{Stdout: &out, Stderr: &errOut})

	assert.Equal(t, mainer.ExitCode(74), code)
}

func TestRunWithoutExplicitCommandInfersRun(t *testing.T) {
	path := writeSource(t, `print "implicit";`)

	var out, errOut bytes.Buffer
	c := maincmd.Cmd{}
	code := c.Main([]string{"clox", path}, mainer.Stdio{Stdout: &out, Stderr: &errOut})

	assert.Equal(t, mainer.ExitCode(0), code)
	assert.Equal(t, "implicit\n", out.String())
}

func TestHelpFlagExitsSuccess(t *testing.T) {
	var out, errOut bytes.Buffer
	c := maincmd.Cmd{}
	code := c.Main([]string{"clox", "--help"}, mainer.Stdio{Stdout: &out, Stderr: &errOut})

	assert.Equal(t, mainer.ExitCode(0), code)
	assert.Contains(t, out.String(), "usage: clox")
}

func TestDisassembleCommandPrintsBytecode(t *testing.T) {
	path := writeSource(t, `print 1 + 2;`)

	var out, errOut bytes.Buffer
	c := maincmd.Cmd{}
	code := c.Main([]string{"clox", "disassemble", path}, mainer.Stdio{Stdout: &out, Stderr: &errOut})

	assert.Equal(t, mainer.ExitCode(0), code)
	assert.Contains(t, out.String(), "OP_CONSTANT")
	assert.Contains(t, out.String(), "== <script> ==")
}
