package machine_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxlang/clox/lang/machine"
)

func run(t *testing.T, source string) (stdout, stderr string, result machine.InterpretResult) {
	t.Helper()
	vm := machine.New()
	var out, errOut bytes.Buffer
	vm.Stdout = &out
	vm.Stderr = &errOut
	result = vm.Interpret([]byte(source))
	return out.String(), errOut.String(), result
}

func TestInterpretArithmeticAndPrint(t *testing.T) {
	out, _, result := run(t, `print 1 + 2 * 3;`)
	require.Equal(t, machine.InterpretOK, result)
	assert.Equal(t, "7\n", out)
}

func TestInterpretStringConcatenation(t *testing.T) {
	out, _, result := run(t, `print "foo" + "bar";`)
	require.Equal(t, machine.InterpretOK, result)
	assert.Equal(t, "foobar\n", out)
}

func TestInterpretGlobalAndLocalVariables(t *testing.T) {
	out, _, result := run(t, `
		var a = "global";
		{
			var a = "local";
			print a;
		}
		print a;
	`)
	require.Equal(t, machine.InterpretOK, result)
	assert.Equal(t, "local\nglobal\n", out)
}

func TestInterpretControlFlow(t *testing.T) {
	out, _, result := run(t, `
		var i = 0;
		var sum = 0;
		while (i < 5) {
			sum = sum + i;
			i = i + 1;
		}
		print sum;
	`)
	require.Equal(t, machine.InterpretOK, result)
	assert.Equal(t, "10\n", out)
}

func TestInterpretClosuresCaptureByReference(t *testing.T) {
	out, _, result := run(t, `
		fun makeCounter() {
			var i = 0;
			fun count() {
				i = i + 1;
				return i;
			}
			return count;
		}
		var counter = makeCounter();
		print counter();
		print counter();
		print counter();
	`)
	require.Equal(t, machine.InterpretOK, result)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestInterpretClassesAndMethods(t *testing.T) {
	out, _, result := run(t, `
		class Greeter {
			init(name) {
				this.name = name;
			}
			greet() {
				return "hello " + this.name;
			}
		}
		var g = Greeter("world");
		print g.greet();
	`)
	require.Equal(t, machine.InterpretOK, result)
	assert.Equal(t, "hello world\n", out)
}

func TestInterpretInheritanceAndSuper(t *testing.T) {
	out, _, result := run(t, `
		class Animal {
			speak() { return "..."; }
		}
		class Dog < Animal {
			speak() { return "woof (" + super.speak() + ")"; }
		}
		print Dog().speak();
	`)
	require.Equal(t, machine.InterpretOK, result)
	assert.Equal(t, "woof (...)\n", out)
}

func TestInterpretUndefinedVariableIsRuntimeError(t *testing.T) {
	_, errOut, result := run(t, `print nope;`)
	assert.Equal(t, machine.InterpretRuntimeError, result)
	assert.Contains(t, errOut, "Undefined variable 'nope'")
	assert.Contains(t, errOut, "[line 1] in script")
}

func TestInterpretTypeErrorOnAddition(t *testing.T) {
	_, errOut, result := run(t, `print 1 + "two";`)
	assert.Equal(t, machine.InterpretRuntimeError, result)
	assert.Contains(t, errOut, "Operands must be two numbers or two strings.")
}

func TestInterpretSyntaxErrorIsCompileError(t *testing.T) {
	_, _, result := run(t, `var = 1;`)
	assert.Equal(t, machine.InterpretCompileError, result)
}

func TestInterpretStackOverflowOnUnboundedRecursion(t *testing.T) {
	_, errOut, result := run(t, `
		fun recurse() { return recurse(); }
		recurse();
	`)
	assert.Equal(t, machine.InterpretRuntimeError, result)
	assert.Contains(t, errOut, "Stack overflow.")
}

func TestInterpretClockNativeReturnsNumber(t *testing.T) {
	out, _, result := run(t, `
		var t = clock();
		print t >= 0;
	`)
	require.Equal(t, machine.InterpretOK, result)
	assert.Equal(t, "true\n", out)
}

func TestInterpretTraceModePrintsInstructions(t *testing.T) {
	vm := machine.New()
	var out, errOut bytes.Buffer
	vm.Stdout = &out
	vm.Stderr = &errOut
	vm.Trace = true

	result := vm.Interpret([]byte(`print 1 + 1;`))
	require.Equal(t, machine.InterpretOK, result)
	assert.True(t, strings.Contains(errOut.String(), "OP_CONSTANT"))
}
