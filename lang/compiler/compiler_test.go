package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evie-lang/evie/lang/compiler"
	"github.com/evie-lang/evie/lang/evieerr"
	"github.com/evie-lang/evie/lang/value"
)

func compile(t *testing.T, src string) (*value.ObjFunction, error) {
	t.Helper()
	return compiler.Compile(src, value.NewAllocator())
}

func TestCompilesSimpleExpressionStatement(t *testing.T) {
	fn, err := compile(t, `1 + 2 * 3;`)
	require.NoError(t, err)
	assert.Equal(t, "", fn.Name)
	assert.NotEmpty(t, fn.Chunk.Code)
}

func TestScanErrorReportedAsScanPhase(t *testing.T) {
	_, err := compile(t, "var x = \"unterminated;")
	require.Error(t, err)
	var pe *evieerr.PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, evieerr.ScanPhase, pe.Phase)
}

func TestSyntaxErrorReportedAsParsePhase(t *testing.T) {
	_, err := compile(t, "var = 1;")
	require.Error(t, err)
	var pe *evieerr.PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, evieerr.ParsePhase, pe.Phase)
}

func TestSelfReferencingInitializerIsResolutionError(t *testing.T) {
	_, err := compile(t, `{ var a = a; }`)
	require.Error(t, err)
	var pe *evieerr.PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, evieerr.ResolutionPhase, pe.Phase)
	assert.Contains(t, pe.Err.Error(), "own initializer")
}

func TestSameScopeRedeclarationIsResolutionError(t *testing.T) {
	_, err := compile(t, `{ var a = 1; var a = 2; }`)
	require.Error(t, err)
	var pe *evieerr.PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, evieerr.ResolutionPhase, pe.Phase)
}

func TestShadowingInNestedScopeIsAllowed(t *testing.T) {
	_, err := compile(t, `{ var a = 1; { var a = 2; } }`)
	require.NoError(t, err)
}

func TestReturnValueFromInitializerIsParseError(t *testing.T) {
	_, err := compile(t, `
class Foo {
  init() {
    return 2;
  }
}
`)
	require.Error(t, err)
	var pe *evieerr.PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, evieerr.ParsePhase, pe.Phase)
	assert.Contains(t, pe.Err.Error(), "initializer")
}

func TestReturnAtTopLevelIsParseError(t *testing.T) {
	_, err := compile(t, `return 1;`)
	require.Error(t, err)
	var pe *evieerr.PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, evieerr.ParsePhase, pe.Phase)
	assert.Contains(t, pe.Err.Error(), "top-level")
}

func TestThisOutsideMethodIsParseError(t *testing.T) {
	_, err := compile(t, `print this;`)
	require.Error(t, err)
	var pe *evieerr.PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, evieerr.ParsePhase, pe.Phase)
}

func TestFunctionDeclarationEmitsClosure(t *testing.T) {
	fn, err := compile(t, `
fun add(a, b) {
  return a + b;
}
`)
	require.NoError(t, err)
	require.NotEmpty(t, fn.Chunk.Constants)

	var found *value.ObjFunction
	for _, c := range fn.Chunk.Constants {
		if c.IsObj() && value.IsFunctionObj(c.AsObj()) {
			found = value.AsFunction(c.AsObj())
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "add", found.Name)
	assert.Equal(t, 2, found.Arity)
}

func TestMultipleErrorsStillReportAsParsePhase(t *testing.T) {
	_, err := compile(t, `
var = 1;
var = 2;
`)
	require.Error(t, err)
	var pe *evieerr.PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, evieerr.ParsePhase, pe.Phase)
	assert.Contains(t, evieerr.ReportString(err), "[Parse Error]")
}
