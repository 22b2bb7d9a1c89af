package natives_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evie-lang/evie/lang/natives"
	"github.com/evie-lang/evie/lang/value"
)

func TestRegisterInstallsClockAndToString(t *testing.T) {
	alloc := value.NewAllocator()
	globals := value.NewGlobalTable()
	natives.Register(alloc, globals)

	for _, name := range []string{"clock", "to_string", "globals"} {
		v, ok := globals.Get(name)
		require.True(t, ok, "expected %s to be registered", name)
		require.True(t, v.IsObj())
		require.True(t, value.IsNativeObj(v.AsObj()))
	}
}

func TestClockReturnsNonNegativeSeconds(t *testing.T) {
	alloc := value.NewAllocator()
	globals := value.NewGlobalTable()
	natives.Register(alloc, globals)

	clockVal, _ := globals.Get("clock")
	native := value.AsNative(clockVal.AsObj())
	result, err := native.Fn(alloc, nil)
	require.NoError(t, err)
	require.True(t, result.IsNumber())
	assert.GreaterOrEqual(t, result.AsNumber(), 0.0)
}

func TestToStringRendersEachValueKind(t *testing.T) {
	alloc := value.NewAllocator()
	globals := value.NewGlobalTable()
	natives.Register(alloc, globals)
	toStringVal, _ := globals.Get("to_string")
	native := value.AsNative(toStringVal.AsObj())

	cases := []struct {
		in   value.Value
		want string
	}{
		{value.Nil, "nil"},
		{value.Bool(true), "true"},
		{value.Number(2), "2"},
		{value.Number(2.5), "2.5"},
	}
	for _, tc := range cases {
		result, err := native.Fn(alloc, []value.Value{tc.in})
		require.NoError(t, err)
		require.True(t, result.IsObj())
		require.True(t, value.IsStringObj(result.AsObj()))
		assert.Equal(t, tc.want, value.AsString(result.AsObj()).Chars)
	}
}

func TestToStringInternsItsResult(t *testing.T) {
	alloc := value.NewAllocator()
	globals := value.NewGlobalTable()
	natives.Register(alloc, globals)
	toStringVal, _ := globals.Get("to_string")
	native := value.AsNative(toStringVal.AsObj())

	r1, err := native.Fn(alloc, []value.Value{value.Number(7)})
	require.NoError(t, err)
	r2, err := native.Fn(alloc, []value.Value{value.Number(7)})
	require.NoError(t, err)
	assert.Same(t, value.AsString(r1.AsObj()), value.AsString(r2.AsObj()))
}

func TestGlobalsListsNamesInSortedOrder(t *testing.T) {
	alloc := value.NewAllocator()
	globals := value.NewGlobalTable()
	natives.Register(alloc, globals)
	globals.Set("zebra", value.Number(1))
	globals.Set("apple", value.Number(2))

	globalsVal, _ := globals.Get("globals")
	native := value.AsNative(globalsVal.AsObj())
	result, err := native.Fn(alloc, nil)
	require.NoError(t, err)
	require.True(t, result.IsObj())
	got := value.AsString(result.AsObj()).Chars
	assert.Contains(t, got, "apple")
	assert.Contains(t, got, "zebra")
	assert.True(t, strings.Index(got, "apple") < strings.Index(got, "zebra"))
}
