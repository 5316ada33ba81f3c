package qdisc

import (
	"sync"

	"github.com/justapithecus/qdisc/bitmap"
)

// emptinessTracker is the per-classful-node "believed non-empty" bit per
// child (§4.5/§4.6: the emptiness bitmap). Two implementations exist, mirroring
// §4.5's bitmap vs. locking variants: bitmapTracker is lock-free on the
// read/guarded-clear hot path and backed by the bitmap package's
// ConcurrentBitmap; lockingTracker is a plain mutex-guarded bit vector for
// low-contention deployments that would rather avoid the guard-token CAS
// machinery entirely.
//
// The emptiness bit for child i is eventually consistent with "child i holds
// a workload": it may read true while the child is actually empty (an
// optimistic over-estimate cleared lazily on the next failed dequeue), but
// is never false while a workload enqueued since the last clear has not yet
// been observed by a dequeue attempt.
type emptinessTracker interface {
	Len() int
	Grow(n int)
	InsertAt(i int, v bool)
	RemoveAt(i int)
	Set(i int, v bool)
	// Get returns the bit value and an opaque token pairing the observation
	// with a later TryClearGuarded call.
	Get(i int) (value bool, token any)
	// TryClearGuarded clears bit i if token still matches the tracker's
	// current observation for i; returns false if a concurrent writer set
	// it again since token was read.
	TryClearGuarded(i int, token any) bool
	IsEmpty() bool
}

// bitmapTracker adapts *bitmap.Bitmap to emptinessTracker.
type bitmapTracker struct {
	bm *bitmap.Bitmap
}

func newBitmapTracker() *bitmapTracker {
	return &bitmapTracker{bm: bitmap.New(0)}
}

func (t *bitmapTracker) Len() int           { return t.bm.Len() }
func (t *bitmapTracker) Grow(n int)         { t.bm.Grow(n) }
func (t *bitmapTracker) InsertAt(i int, v bool) { t.bm.InsertAt(i, v) }
func (t *bitmapTracker) RemoveAt(i int)     { t.bm.RemoveAt(i) }
func (t *bitmapTracker) Set(i int, v bool)  { t.bm.Set(i, v) }

func (t *bitmapTracker) Get(i int) (bool, any) {
	v, tok, _ := t.bm.GetBitInfo(i)
	return v, tok
}

func (t *bitmapTracker) TryClearGuarded(i int, token any) bool {
	return t.bm.TryGuardedSet(i, token.(uint8), false)
}

func (t *bitmapTracker) IsEmpty() bool { return t.bm.IsEmpty() }

// lockingTracker is a mutex-guarded []bool with a parallel per-bit
// generation counter, giving it the same guard semantics as bitmapTracker
// under a mutex instead of a CAS: Get's token is bit i's generation at the
// time of the read, and TryClearGuarded only clears (and advances the
// generation) if no Set has landed on i since — so a Set that lands between
// a worker's Get and its later TryClearGuarded call (e.g. tryChildDequeue's
// read-then-attempt-then-clear window in roundrobin.go/strictprio.go) is not
// stomped back to false by the stale clear.
type lockingTracker struct {
	mu   sync.RWMutex
	bits []bool
	gens []uint64
}

func newLockingTracker() *lockingTracker { return &lockingTracker{} }

func (t *lockingTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.bits)
}

func (t *lockingTracker) Grow(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bits = append(t.bits, make([]bool, n)...)
	t.gens = append(t.gens, make([]uint64, n)...)
}

func (t *lockingTracker) InsertAt(i int, v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bits = append(t.bits, false)
	copy(t.bits[i+1:], t.bits[i:])
	t.bits[i] = v
	t.gens = append(t.gens, 0)
	copy(t.gens[i+1:], t.gens[i:])
	t.gens[i] = 0
}

func (t *lockingTracker) RemoveAt(i int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bits = append(t.bits[:i], t.bits[i+1:]...)
	t.gens = append(t.gens[:i], t.gens[i+1:]...)
}

func (t *lockingTracker) Set(i int, v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bits[i] = v
	t.gens[i]++
}

func (t *lockingTracker) Get(i int) (bool, any) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.bits[i], t.gens[i]
}

func (t *lockingTracker) TryClearGuarded(i int, token any) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gens[i] != token.(uint64) {
		return false
	}
	t.bits[i] = false
	t.gens[i]++
	return true
}

func (t *lockingTracker) IsEmpty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, b := range t.bits {
		if b {
			return false
		}
	}
	return true
}

func newTracker(v Variant) emptinessTracker {
	if v == LockingVariant {
		return newLockingTracker()
	}
	return newBitmapTracker()
}
