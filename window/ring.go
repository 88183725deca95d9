package window

import "sort"

// ringEntry pairs a payload with the int64 (UnixNano) timestamp it was
// inserted under, so the ring can binary-search on ts without requiring the
// payload type itself to be ordered.
type ringEntry[T any] struct {
	ts    int64
	value T
}

// ring is a growable ring buffer of ringEntry values, adapted from
// catrate/ring.go: same mask/bounds arithmetic and the same amortized-O(1)
// insert-with-shift strategy, generalized to store a (timestamp, payload)
// pair instead of a bare ordered element.
type ring[T any] struct {
	s    []ringEntry[T]
	r, w uint
}

func newRing[T any](size int) *ring[T] {
	if size <= 0 || size&(size-1) != 0 {
		panic(`window: ring: size must be a power of 2`)
	}
	return &ring[T]{s: make([]ringEntry[T], size)}
}

func (x *ring[T]) mask(val uint) uint {
	return val & (uint(len(x.s)) - 1)
}

func (x *ring[T]) bounds() (i1, l1, l2 int) {
	if x.r == x.w {
		return
	}
	i1 = int(x.mask(x.r))
	l1 = int(x.mask(x.w))
	if l1 <= i1 {
		l2 = l1
		l1 = len(x.s)
	}
	return
}

func (x *ring[T]) Len() int {
	return int(x.w - x.r)
}

func (x *ring[T]) Cap() int {
	return len(x.s)
}

func (x *ring[T]) Get(i int) ringEntry[T] {
	if i < 0 || i >= x.Len() {
		panic(`window: ring: get: index out of range`)
	}
	return x.s[x.mask(x.r+uint(i))]
}

// RemoveBefore discards the first index entries (oldest-first).
func (x *ring[T]) RemoveBefore(index int) {
	if index < 0 || index > x.Len() {
		panic(`window: ring: remove before: index out of range`)
	}
	x.r += uint(index)
}

// Search returns the index of the first entry whose timestamp is >= ts,
// or Len() if there is none. Entries are always kept in non-decreasing
// timestamp order by Insert, so a binary search is valid, and - unlike a
// linear scan from the tail - it is bounded by O(log n) regardless of how
// far out of order an inserted entry is.
func (x *ring[T]) Search(ts int64) int {
	return sort.Search(x.Len(), func(i int) bool {
		return x.Get(i).ts >= ts
	})
}

// Insert places e at index, shifting later entries back. index must be in
// [0, Len()].
func (x *ring[T]) Insert(index int, e ringEntry[T]) {
	l := x.Len()
	if index < 0 || index > l {
		panic(`window: ring: insert: index out of range`)
	}

	if l == len(x.s) {
		// full, special case: requires expanding the buffer
		s := make([]ringEntry[T], uint(len(x.s))<<1)
		if len(s) == 0 {
			panic(`window: ring: insert: overflow`)
		}

		// since we're copying the whole thing anyway, we can start at 0
		i1, l1, l2 := x.bounds()
		l = l1 - i1
		if index < l {
			// insert in the first segment
			copy(s, x.s[i1:i1+index])
			s[index] = e
			copy(s[index+1:], x.s[i1+index:l1])
			l++
			copy(s[l:], x.s[:l2])
			l += l2
		} else {
			// insert in the second segment
			copy(s, x.s[i1:l1])
			copy(s[l:], x.s[:index-l])
			s[index] = e
			copy(s[index+1:], x.s[index-l:l2])
			l += l2 + 1
		}

		x.r = 0
		x.w = uint(l)
		x.s = s
		return
	}

	var i, j int
	if l == 0 {
		x.r = 0
		x.w = 0
	} else {
		i = int(x.mask(x.r))
		j = int(x.mask(x.w))
	}

	// fastest case: not wrapped around, and there's room to write
	if l == 0 || i < j {
		copy(x.s[i+index+1:], x.s[i+index:j])
		x.s[i+index] = e
		x.w++
		return
	}

	// slow case that only adjusts one segment
	if index >= len(x.s)-i {
		index -= len(x.s) - i
		copy(x.s[index+1:], x.s[index:j])
		x.s[index] = e
		x.w++
		return
	}

	// slowest case that requires adjusting both segments
	copy(x.s[1:], x.s[:j])
	x.s[0] = x.s[len(x.s)-1]
	copy(x.s[i+index+1:], x.s[i+index:])
	x.s[i+index] = e
	x.w++
}
