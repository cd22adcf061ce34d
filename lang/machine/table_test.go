package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testString(chars string) *ObjString {
	return &ObjString{Chars: chars, Hash: fnv1a32(chars)}
}

func TestTableSetAndGet(t *testing.T) {
	tbl := NewTable()
	key := testString("name")

	isNew := tbl.Set(key, NumberValue(42))
	assert.True(t, isNew)

	v, ok := tbl.Get(key)
	require.True(t, ok)
	assert.Equal(t, NumberValue(42), v)
}

func TestTableSetOverwritesExistingKey(t *testing.T) {
	tbl := NewTable()
	key := testString("name")
	tbl.Set(key, NumberValue(1))

	isNew := tbl.Set(key, NumberValue(2))
	assert.False(t, isNew)

	v, _ := tbl.Get(key)
	assert.Equal(t, NumberValue(2), v)
}

func TestTableGetMissingKey(t *testing.T) {
	tbl := NewTable()
	_, ok := tbl.Get(testString("missing"))
	assert.False(t, ok)
}

func TestTableDeleteLeavesTombstoneThatDoesNotBreakProbing(t *testing.T) {
	tbl := NewTable()
	a, b := testString("a"), testString("b")
	tbl.Set(a, NumberValue(1))
	tbl.Set(b, NumberValue(2))

	require.True(t, tbl.Delete(a))

	// b must still be reachable even though deleting a may have left a
	// tombstone along its probe sequence.
	v, ok := tbl.Get(b)
	require.True(t, ok)
	assert.Equal(t, NumberValue(2), v)

	_, ok = tbl.Get(a)
	assert.False(t, ok)
}

func TestTableDeleteMissingKey(t *testing.T) {
	tbl := NewTable()
	assert.False(t, tbl.Delete(testString("nope")))
}

func TestTableGrowsPastLoadFactor(t *testing.T) {
	tbl := NewTable()
	for i := 0; i < 100; i++ {
		tbl.Set(testString(string(rune('a'+i%26))+string(rune(i))), NumberValue(float64(i)))
	}
	assert.Equal(t, 100, tbl.count)
}

func TestTableAddAllCopiesEveryEntry(t *testing.T) {
	src, dst := NewTable(), NewTable()
	x, y := testString("x"), testString("y")
	src.Set(x, NumberValue(1))
	src.Set(y, NumberValue(2))

	AddAll(src, dst)

	// keys are compared by pointer identity (Table.Get, not FindString), so
	// the lookup must reuse the very *ObjString src was keyed on.
	v, ok := dst.Get(x)
	require.True(t, ok)
	assert.Equal(t, NumberValue(1), v)

	v, ok = dst.Get(y)
	require.True(t, ok)
	assert.Equal(t, NumberValue(2), v)
}

func TestTableFindStringMatchesByContent(t *testing.T) {
	tbl := NewTable()
	s := testString("hello")
	tbl.Set(s, Nil)

	found := tbl.FindString("hello", fnv1a32("hello"))
	assert.Same(t, s, found)

	assert.Nil(t, tbl.FindString("goodbye", fnv1a32("goodbye")))
}

func TestTableRemoveUnmarkedSweepsDeadKeys(t *testing.T) {
	tbl := NewTable()
	live, dead := testString("live"), testString("dead")
	tbl.Set(live, Nil)
	tbl.Set(dead, Nil)
	live.marked = true

	tbl.removeUnmarked()

	_, ok := tbl.Get(live)
	assert.True(t, ok)
	_, ok = tbl.Get(dead)
	assert.False(t, ok)
}
