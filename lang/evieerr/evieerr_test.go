package evieerr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evie-lang/evie/lang/evieerr"
)

func TestPhaseTag(t *testing.T) {
	cases := []struct {
		phase evieerr.Phase
		want  string
	}{
		{evieerr.ScanPhase, "[Scan Error]"},
		{evieerr.ParsePhase, "[Parse Error]"},
		{evieerr.ResolutionPhase, "[Resolution Error]"},
		{evieerr.RuntimePhase, "[Runtime Error]"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.phase.Tag())
	}
}

func TestReportString(t *testing.T) {
	err := evieerr.Wrap(evieerr.RuntimePhase, evieerr.NewRuntimeError(nil, "Undefined variable '%s'.", "x"))
	require.Equal(t, "[Runtime Error] Undefined variable 'x'.", evieerr.ReportString(err))
}

func TestRuntimeErrorStackTrace(t *testing.T) {
	stack := []evieerr.Frame{
		{Line: 3, FuncName: "c"},
		{Line: 1, FuncName: "b"},
		{Line: 1, FuncName: "a"},
		{Line: 1, FuncName: ""},
	}
	err := evieerr.NewRuntimeError(stack, "Expected 0 arguments but got 2 for <fn c>.")
	want := "Expected 0 arguments but got 2 for <fn c>.\n" +
		"[line 3] in <fn c>\n" +
		"[line 1] in <fn b>\n" +
		"[line 1] in <fn a>\n" +
		"[line 1] in script"
	require.Equal(t, want, err.Error())
}
