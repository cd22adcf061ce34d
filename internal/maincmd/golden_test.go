package maincmd_test

import (
	"bytes"
	"flag"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"

	"github.com/loxlang/clox/internal/filetest"
	"github.com/loxlang/clox/internal/maincmd"
)

var updateGoldenTests = flag.Bool("test.update-golden-tests", false, "update internal/maincmd testdata golden files")

// TestRunAgainstGoldenFiles runs every .lox program under testdata/ through
// `clox run` and diffs its stdout/stderr against the matching .want/.err
// golden file, covering representative end-to-end scenarios: arithmetic and
// string output, class/method dispatch, and a runtime error surfacing its
// stack trace on stderr.
func TestRunAgainstGoldenFiles(t *testing.T) {
	const dir = "testdata"
	for _, fi := range filetest.SourceFiles(t, dir, ".lox") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			var out, errOut bytes.Buffer
			c := maincmd.Cmd{}
			c.Main([]string{"clox", "run", filepath.Join(dir, fi.Name())}, mainer.Stdio{Stdout: &out, Stderr: &errOut})

			filetest.DiffOutput(t, fi, out.String(), dir, updateGoldenTests)
			filetest.DiffErrors(t, fi, errOut.String(), dir, updateGoldenTests)
		})
	}
}
