package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRing(t *testing.T) {
	r := newRing[int](8)
	assert.NotNil(t, r)
	assert.Equal(t, 8, len(r.s))
	assert.Equal(t, uint(0), r.r)
	assert.Equal(t, uint(0), r.w)
}

func TestNewRing_PanicWithInvalidSize(t *testing.T) {
	assert.Panics(t, func() { newRing[int](0) })
	assert.Panics(t, func() { newRing[int](3) }, "non-power-of-2 size should panic")
}

func TestRing_InsertMaintainsOrder(t *testing.T) {
	r := newRing[int](4)
	r.Insert(0, ringEntry[int]{ts: 10, value: 1})
	r.Insert(1, ringEntry[int]{ts: 20, value: 2})
	r.Insert(1, ringEntry[int]{ts: 15, value: 3}) // out-of-order insert

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, int64(10), r.Get(0).ts)
	assert.Equal(t, int64(15), r.Get(1).ts)
	assert.Equal(t, int64(20), r.Get(2).ts)
}

func TestRing_SearchFindsInsertionPoint(t *testing.T) {
	r := newRing[int](8)
	for _, ts := range []int64{10, 20, 30, 40} {
		r.Insert(r.Search(ts), ringEntry[int]{ts: ts, value: int(ts)})
	}

	assert.Equal(t, 0, r.Search(5))
	assert.Equal(t, 2, r.Search(25))
	assert.Equal(t, 4, r.Search(100))
}

func TestRing_RemoveBeforeAdvancesReadCursor(t *testing.T) {
	r := newRing[int](4)
	r.Insert(0, ringEntry[int]{ts: 1})
	r.Insert(1, ringEntry[int]{ts: 2})
	r.Insert(2, ringEntry[int]{ts: 3})

	r.RemoveBefore(2)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, int64(3), r.Get(0).ts)
}

func TestRing_InsertGrowsWhenFull(t *testing.T) {
	r := newRing[int](2)
	r.Insert(0, ringEntry[int]{ts: 1})
	r.Insert(1, ringEntry[int]{ts: 2})
	assert.Equal(t, 2, r.Cap())

	r.Insert(2, ringEntry[int]{ts: 3})
	assert.Equal(t, 4, r.Cap())
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, int64(1), r.Get(0).ts)
	assert.Equal(t, int64(2), r.Get(1).ts)
	assert.Equal(t, int64(3), r.Get(2).ts)
}

func TestRing_InsertGrowsWhenFullAndWrapped(t *testing.T) {
	r := newRing[int](4)
	for _, ts := range []int64{1, 2, 3, 4} {
		r.Insert(r.Len(), ringEntry[int]{ts: ts})
	}
	r.RemoveBefore(2) // r=2, w=4: wrapped state not yet, but frees room at head

	r.Insert(r.Len(), ringEntry[int]{ts: 5})
	r.Insert(r.Len(), ringEntry[int]{ts: 6}) // now full again, wrapped around the backing array

	assert.Equal(t, 4, r.Len())

	r.Insert(r.Len(), ringEntry[int]{ts: 7}) // forces growth while wrapped

	assert.Equal(t, 8, r.Cap())
	assert.Equal(t, 5, r.Len())
	for i, want := range []int64{3, 4, 5, 6, 7} {
		assert.Equal(t, want, r.Get(i).ts)
	}
}
