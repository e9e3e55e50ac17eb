package scheme

import "fmt"

const wordSize = 8

// DefaultHeapSize is the arena size in bytes used when Config.HeapSize
// is zero.
const DefaultHeapSize = 128 << 20

// Arena is a fixed block of words from which objects are bump allocated.
// Nothing is ever freed.
type Arena struct {
	words []Value
	free  int

	// exhausted is called when an allocation does not fit; it must not
	// return.
	exhausted func(need int)
}

func newArena(size int, exhausted func(need int)) *Arena {
	n := size / wordSize
	if n < 1 {
		n = 1
	}
	return &Arena{words: make([]Value, n), exhausted: exhausted}
}

// Alloc reserves n consecutive words and returns the index of the first.
func (a *Arena) Alloc(n int) int {
	if a.free+n > len(a.words) {
		a.exhausted(n)
		panic(fmt.Sprintf("arena exhausted: %d words requested", n))
	}
	i := a.free
	a.free += n
	return i
}

// Used returns the number of bytes handed out so far.
func (a *Arena) Used() int { return a.free * wordSize }

// Remaining returns the number of bytes still available.
func (a *Arena) Remaining() int { return (len(a.words) - a.free) * wordSize }

// Size returns the capacity of the arena in bytes.
func (a *Arena) Size() int { return len(a.words) * wordSize }
