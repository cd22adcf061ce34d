// Package machine implements the stack-based virtual machine: the runtime
// Value representation, the heap object graph and its mark-sweep garbage
// collector, the open-addressed hash table used for interning and for
// globals/methods/fields, and the bytecode dispatch loop itself.
package machine

import (
	"fmt"
	"strconv"
)

// ValueType tags the kind of value held by a Value. A tagged union is one
// of two reasonable representations for this (the other being a NaN-boxed
// 64-bit encoding); every algorithm in this package is written purely in
// terms of the accessors below so the two stay interchangeable.
type ValueType uint8

const (
	ValNil ValueType = iota
	ValBool
	ValNumber
	ValObj
)

// Value is a dynamically typed cell holding nil, a bool, an IEEE-754
// double, or a reference to a heap Obj.
type Value struct {
	typ    ValueType
	b      bool
	n      float64
	object Obj
}

var Nil = Value{typ: ValNil}
var True = Value{typ: ValBool, b: true}
var False = Value{typ: ValBool, b: false}

func BoolValue(b bool) Value {
	if b {
		return True
	}
	return False
}

func NumberValue(n float64) Value  { return Value{typ: ValNumber, n: n} }
func ObjValue(o Obj) Value         { return Value{typ: ValObj, object: o} }

func (v Value) IsNil() bool    { return v.typ == ValNil }
func (v Value) IsBool() bool   { return v.typ == ValBool }
func (v Value) IsNumber() bool { return v.typ == ValNumber }
func (v Value) IsObj() bool    { return v.typ == ValObj }

func (v Value) AsBool() bool     { return v.b }
func (v Value) AsNumber() float64 { return v.n }
func (v Value) AsObj() Obj        { return v.object }

// IsFalsey reports whether v is falsy: exactly nil and false are falsy,
// every other value (including 0 and "") is truthy.
func (v Value) IsFalsey() bool {
	return v.IsNil() || (v.IsBool() && !v.AsBool())
}

// ValuesEqual implements OP_EQUAL: strict type match, numbers compared with
// ==, objects (chiefly strings) compared by identity, which is sound only
// because strings are interned.
func ValuesEqual(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case ValNil:
		return true
	case ValBool:
		return a.b == b.b
	case ValNumber:
		return a.n == b.n
	case ValObj:
		if as, ok := a.object.(*ObjString); ok {
			bs, ok := b.object.(*ObjString)
			return ok && as == bs
		}
		return a.object == b.object
	}
	return false
}

// String renders v the way `print` does.
func (v Value) String() string {
	switch v.typ {
	case ValNil:
		return "nil"
	case ValBool:
		if v.b {
			return "true"
		}
		return "false"
	case ValNumber:
		return formatNumber(v.n)
	case ValObj:
		return v.object.String()
	}
	return "<invalid value>"
}

// formatNumber mirrors the C runtime's printf("%g", n): 6 significant
// digits, trailing zeros trimmed, switching to exponential form once the
// exponent runs out of precision to show in fixed form.
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', 6, 64)
}

func (v Value) TypeName() string {
	switch v.typ {
	case ValNil:
		return "nil"
	case ValBool:
		return "bool"
	case ValNumber:
		return "number"
	case ValObj:
		return v.object.Kind().String()
	}
	return fmt.Sprintf("unknown(%d)", v.typ)
}
