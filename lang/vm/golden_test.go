package vm_test

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/evie-lang/evie/internal/filetest"
	"github.com/evie-lang/evie/lang/evieerr"
	"github.com/evie-lang/evie/lang/vm"
)

var testUpdateVMTests = flag.Bool("test.update-vm-tests", false, "If set, replace expected VM golden test results with actual results.")

// TestGolden runs every testdata/in/*.evie program through a fresh VM and
// diffs its stdout and stderr against testdata/out/<name>.want and
// <name>.err, the same source-file/golden-file convention the teacher's
// parser and resolver tests use (internal/filetest).
func TestGolden(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")
	for _, fi := range filetest.SourceFiles(t, srcDir, ".evie") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(srcDir, fi.Name()))
			if err != nil {
				t.Fatal(err)
			}

			var out, errOut bytes.Buffer
			m := vm.New()
			m.Stdout = &out
			m.Stderr = &errOut
			if runErr := m.Interpret(string(src)); runErr != nil {
				errOut.WriteString(evieerr.ReportString(runErr))
				errOut.WriteByte('\n')
			}

			filetest.DiffOutput(t, fi, out.String(), resultDir, testUpdateVMTests)
			filetest.DiffErrors(t, fi, errOut.String(), resultDir, testUpdateVMTests)
		})
	}
}
