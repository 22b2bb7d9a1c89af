package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evie-lang/evie/lang/evieerr"
	"github.com/evie-lang/evie/lang/vm"
)

func run(t *testing.T, src string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	m := vm.New()
	m.Stdout = &out
	m.Stderr = &errOut
	err = m.Interpret(src)
	return out.String(), errOut.String(), err
}

func TestArithmeticAndComparison(t *testing.T) {
	out, _, err := run(t, `print 1 + 2 * 3; print (1 + 2) * 3; print 10 / 4; print 3 > 2; print 3 >= 3; print 1 == 1.0;`)
	require.NoError(t, err)
	assert.Equal(t, "7\n9\n2.5\ntrue\ntrue\ntrue\n", out)
}

func TestStringConcatAndIdentity(t *testing.T) {
	out, _, err := run(t, `
var a = "foo" + "bar";
print a;
print a == "foobar";
print "x" == "x";
`)
	require.NoError(t, err)
	assert.Equal(t, "foobar\ntrue\ntrue\n", out)
}

func TestBlockScopingAndShadowing(t *testing.T) {
	out, _, err := run(t, `
var x = "outer";
{
  var x = "inner";
  print x;
}
print x;
`)
	require.NoError(t, err)
	assert.Equal(t, "inner\nouter\n", out)
}

func TestClosureCapturesLocal(t *testing.T) {
	out, _, err := run(t, `
fun makeCounter() {
  var count = 0;
  fun counter() {
    count = count + 1;
    return count;
  }
  return counter;
}
var c1 = makeCounter();
var c2 = makeCounter();
print c1();
print c1();
print c2();
`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n1\n", out)
}

func TestRecursiveFib(t *testing.T) {
	out, _, err := run(t, `
fun fib(n) {
  if (n < 2) return n;
  return fib(n - 1) + fib(n - 2);
}
print fib(10);
`)
	require.NoError(t, err)
	assert.Equal(t, "55\n", out)
}

func TestClassInitThisAndBoundMethod(t *testing.T) {
	out, _, err := run(t, `
class Counter {
  init(start) {
    this.value = start;
  }
  increment() {
    this.value = this.value + 1;
    return this.value;
  }
}
var c = Counter(10);
print c.increment();
print c.increment();
var bound = c.increment;
print bound();
`)
	require.NoError(t, err)
	assert.Equal(t, "11\n12\n13\n", out)
}

func TestRuntimeErrorArityMismatchStackTrace(t *testing.T) {
	_, _, err := run(t, `
fun c(x, y) {
  return x + y;
}
fun b() {
  return c("x");
}
fun a() {
  return b();
}
a();
`)
	require.Error(t, err)
	report := evieerr.ReportString(err)
	lines := strings.Split(report, "\n")
	// c's own frame never gets pushed: the arity mismatch is caught before
	// callClosure appends it, so the trace starts at c's caller, b.
	require.GreaterOrEqual(t, len(lines), 4)
	assert.True(t, strings.HasPrefix(lines[0], "[Runtime Error]"))
	assert.Contains(t, lines[0], "Expected 2 arguments but got 1")
	assert.Contains(t, lines[1], "in <fn b>")
	assert.Contains(t, lines[2], "in <fn a>")
	assert.Contains(t, lines[3], "in script")
}

func TestUndefinedPropertyIsRuntimeError(t *testing.T) {
	_, _, err := run(t, `
class Empty {}
var e = Empty();
print e.missing;
`)
	require.Error(t, err)
	assert.Contains(t, evieerr.ReportString(err), "Undefined property 'missing'")
}

func TestGlobalPersistsAcrossInterpretCalls(t *testing.T) {
	m := vm.New()
	var out bytes.Buffer
	m.Stdout = &out

	require.NoError(t, m.Interpret(`var counter = 0;`))
	require.NoError(t, m.Interpret(`counter = counter + 1; print counter;`))
	require.NoError(t, m.Interpret(`counter = counter + 1; print counter;`))
	assert.Equal(t, "1\n2\n", out.String())
}

func TestNativeClockAndToString(t *testing.T) {
	out, _, err := run(t, `
print to_string(42);
print to_string(true);
var start = clock();
print start >= 0.0;
`)
	require.NoError(t, err)
	assert.Equal(t, "42\ntrue\ntrue\n", out)
}
