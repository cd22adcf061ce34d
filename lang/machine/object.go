package machine

import (
	"fmt"

	"github.com/loxlang/clox/lang/compiler"
)

// ObjKind tags the variant of a heap object.
type ObjKind uint8

const (
	ObjKindString ObjKind = iota
	ObjKindFunction
	ObjKindClosure
	ObjKindUpvalue
	ObjKindClass
	ObjKindInstance
	ObjKindBoundMethod
	ObjKindNative
)

var objKindNames = [...]string{
	ObjKindString:      "string",
	ObjKindFunction:    "function",
	ObjKindClosure:     "closure",
	ObjKindUpvalue:     "upvalue",
	ObjKindClass:       "class",
	ObjKindInstance:    "instance",
	ObjKindBoundMethod: "bound method",
	ObjKindNative:      "native",
}

func (k ObjKind) String() string { return objKindNames[k] }

// Obj is implemented by every heap object. Every heap object carries a kind
// tag, a mark bit consulted and set by the GC, and a next-link forming the
// intrusive singly linked list of every live allocation, so every heap
// object stays reachable from this list until freed.
type Obj interface {
	String() string
	Kind() ObjKind

	header() *objHeader
}

// objHeader is embedded by every concrete Obj implementation.
type objHeader struct {
	marked bool
	next   Obj
}

func (h *objHeader) header() *objHeader { return h }

// ObjString is an immutable, interned string. Two equal strings are
// guaranteed to be the same *ObjString, so value equality can compare
// strings by pointer identity.
type ObjString struct {
	objHeader
	Chars string
	Hash  uint32
}

func (s *ObjString) String() string { return s.Chars }
func (s *ObjString) Kind() ObjKind  { return ObjKindString }

// fnv1a32 is the hash used to canonicalize strings in the intern table: a
// precomputed 32-bit FNV-1a hash over the string's bytes.
func fnv1a32(s string) uint32 {
	const (
		offsetBasis = 2166136261
		prime       = 16777619
	)
	h := uint32(offsetBasis)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}

// ObjFunction is the compiled form of a function: its arity, how many
// upvalues it captures, its name (empty for the top-level script), and its
// chunk of bytecode.
type ObjFunction struct {
	objHeader
	Arity        int
	UpvalueCount int
	Name         *ObjString // nil for the top-level script
	Proto        *compiler.FunctionProto
	Constants    []Value // Proto.Chunk.Constants, materialized once at load time
}

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}
func (f *ObjFunction) Kind() ObjKind { return ObjKindFunction }

// ObjUpvalue is either open (Slot indexes a live slot on the VM's value
// stack) or closed (Closed owns the captured value directly, once the slot
// it pointed to is no longer guaranteed to exist). Open upvalues are linked
// by NextOpen, sorted by descending stack slot, with no duplicates for the
// same slot. Closing and reading an upvalue goes through the VM (see
// vm.go), since "where is slot N" is a question only the VM's stack can
// answer.
type ObjUpvalue struct {
	objHeader
	Slot     int
	Closed   Value
	IsClosed bool
	NextOpen *ObjUpvalue
}

func (u *ObjUpvalue) String() string { return "upvalue" }
func (u *ObjUpvalue) Kind() ObjKind  { return ObjKindUpvalue }

// ObjClosure pairs a function with the upvalues it captured. A closure does
// not own its function or its upvalues; both are shared.
type ObjClosure struct {
	objHeader
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) String() string { return c.Function.String() }
func (c *ObjClosure) Kind() ObjKind  { return ObjKindClosure }

// ObjClass is a class: its name and its methods table (string -> closure).
type ObjClass struct {
	objHeader
	Name    *ObjString
	Methods *Table
}

func (c *ObjClass) String() string { return c.Name.Chars }
func (c *ObjClass) Kind() ObjKind  { return ObjKindClass }

// ObjInstance is an instance of a class: a class reference plus a fields
// table (string -> value).
type ObjInstance struct {
	objHeader
	Class  *ObjClass
	Fields *Table
}

func (i *ObjInstance) String() string { return fmt.Sprintf("%s instance", i.Class.Name.Chars) }
func (i *ObjInstance) Kind() ObjKind  { return ObjKindInstance }

// ObjBoundMethod pairs a receiver value with the method closure it was
// bound to by a property access.
type ObjBoundMethod struct {
	objHeader
	Receiver Value
	Method   *ObjClosure
}

func (b *ObjBoundMethod) String() string { return b.Method.String() }
func (b *ObjBoundMethod) Kind() ObjKind  { return ObjKindBoundMethod }

// NativeFn is the signature of a native (built-in) function.
type NativeFn func(argc int, args []Value) (Value, error)

// ObjNative wraps a Go function so it can be called like any other value.
type ObjNative struct {
	objHeader
	Name string
	Fn   NativeFn
}

func (n *ObjNative) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }
func (n *ObjNative) Kind() ObjKind  { return ObjKindNative }
