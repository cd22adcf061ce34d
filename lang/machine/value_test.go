package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFalsey(t *testing.T) {
	assert.True(t, Nil.IsFalsey())
	assert.True(t, False.IsFalsey())
	assert.False(t, True.IsFalsey())
	assert.False(t, NumberValue(0).IsFalsey())
	assert.False(t, ObjValue(testString("")).IsFalsey())
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, ValuesEqual(Nil, Nil))
	assert.True(t, ValuesEqual(NumberValue(1), NumberValue(1)))
	assert.False(t, ValuesEqual(NumberValue(1), NumberValue(2)))
	assert.False(t, ValuesEqual(Nil, False))

	a, b := testString("x"), testString("x")
	assert.False(t, ValuesEqual(ObjValue(a), ObjValue(b)), "distinct ObjStrings are never equal, only interning makes them identical")
	assert.True(t, ValuesEqual(ObjValue(a), ObjValue(a)))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "nil", Nil.String())
	assert.Equal(t, "true", True.String())
	assert.Equal(t, "3.5", NumberValue(3.5).String())
	assert.Equal(t, "3", NumberValue(3).String())
}

func TestValueTypeName(t *testing.T) {
	assert.Equal(t, "number", NumberValue(1).TypeName())
	assert.Equal(t, "bool", True.TypeName())
	assert.Equal(t, "nil", Nil.TypeName())
	assert.Equal(t, "string", ObjValue(testString("s")).TypeName())
}
