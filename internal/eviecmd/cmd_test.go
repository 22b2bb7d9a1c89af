package eviecmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evie-lang/evie/internal/eviecmd"
)

func newStdio(in string) (mainer.Stdio, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return mainer.Stdio{
		Stdin:  strings.NewReader(in),
		Stdout: &out,
		Stderr: &errOut,
	}, &out, &errOut
}

func TestVersionFlag(t *testing.T) {
	c := &eviecmd.Cmd{BuildVersion: "1.2.3", BuildDate: "2026-01-01"}
	stdio, out, _ := newStdio("")
	code := c.Main([]string{"evie", "--version"}, stdio)
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, out.String(), "1.2.3")
}

func TestHelpFlag(t *testing.T) {
	c := &eviecmd.Cmd{}
	stdio, out, _ := newStdio("")
	code := c.Main([]string{"evie", "--help"}, stdio)
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, out.String(), "usage: evie")
}

func TestTooManyPathArgumentsIsInvalidArgs(t *testing.T) {
	c := &eviecmd.Cmd{}
	stdio, _, errOut := newStdio("")
	code := c.Main([]string{"evie", "a.evie", "b.evie"}, stdio)
	assert.Equal(t, mainer.InvalidArgs, code)
	assert.Contains(t, errOut.String(), "invalid arguments")
}

func TestRunFileSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.evie")
	require.NoError(t, os.WriteFile(path, []byte(`print "hi";`), 0o600))

	c := &eviecmd.Cmd{}
	stdio, out, _ := newStdio("")
	code := c.Main([]string{"evie", path}, stdio)
	assert.Equal(t, mainer.Success, code)
	assert.Equal(t, "hi\n", out.String())
}

func TestRunFileRuntimeErrorReportsAndFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.evie")
	require.NoError(t, os.WriteFile(path, []byte(`print 1 + "x";`), 0o600))

	c := &eviecmd.Cmd{}
	stdio, _, errOut := newStdio("")
	code := c.Main([]string{"evie", path}, stdio)
	assert.Equal(t, mainer.Failure, code)
	assert.Contains(t, errOut.String(), "[Runtime Error]")
}

func TestRunFileMissingFileFails(t *testing.T) {
	c := &eviecmd.Cmd{}
	stdio, _, errOut := newStdio("")
	code := c.Main([]string{"evie", filepath.Join(t.TempDir(), "missing.evie")}, stdio)
	assert.Equal(t, mainer.Failure, code)
	assert.NotEmpty(t, errOut.String())
}

func TestReplEchoesPrintedOutputAndSurvivesAnError(t *testing.T) {
	input := "var x = 1\nprint x\nprint 1 + \"x\"\nprint x + 1\n"
	c := &eviecmd.Cmd{}
	stdio, out, errOut := newStdio(input)
	code := c.Main([]string{"evie"}, stdio)
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, out.String(), "1")
	assert.Contains(t, out.String(), "2")
	assert.Contains(t, errOut.String(), "[Runtime Error]")
}
