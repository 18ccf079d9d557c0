package vgpu

import (
	"container/list"
	"sync"
	"time"
)

// Tier identifies a level of the memory hierarchy. Fast is the quickest
// and smallest; Slow is the largest and slowest. Ordering matters:
// Fast < Medium < Slow.
type Tier int

const (
	Fast Tier = iota
	Medium
	Slow
)

func (t Tier) String() string {
	switch t {
	case Fast:
		return "Fast"
	case Medium:
		return "Medium"
	case Slow:
		return "Slow"
	default:
		return "Unknown"
	}
}

// Handle identifies a live allocation. Handles are monotonically issued
// and never reused for the life of the process, so a handle from a freed
// allocation reliably misses the table instead of aliasing a new one.
type Handle uint64

// record tracks one live allocation: which tier it lives in, its backing
// region, and the bookkeeping the pressure check and promotion logic need.
type record struct {
	handle     Handle
	tier       Tier
	region     *Region
	size       int
	pinned     bool
	accessCnt  uint64
	lastAccess time.Time
	lruElem    *list.Element // nil unless tracked in the Fast-tier LRU list
}

// AllocatorStats summarizes the allocator's current state, mirroring the
// statistics the original memory-tier design reports.
type AllocatorStats struct {
	FastUsed, FastLimit     int64
	MediumUsed, MediumLimit int64
	SlowUsed, SlowLimit     int64
	NumAllocations          int
	NumEvictions            int64
	NumPromotions           int64
}

// Allocator is the tiered memory allocator: Fast-tier allocations come
// from plain Go heap memory, Medium and Slow come from file-backed pools.
// A handle table indirects every allocation so the allocator can migrate
// data between tiers without invalidating the caller's reference.
type Allocator struct {
	mu sync.Mutex

	fastLimit int64
	fastUsed  int64
	fastLRU   *list.List // front = most recently used, back = eviction candidate

	medium *pool
	slow   *pool

	spill      *spillExecutor
	asyncSpill bool

	records  map[Handle]*record
	nextID   uint64
	pressure float64

	numEvictions  int64
	numPromotions int64
}

// NewAllocator builds an allocator with the given Fast-tier ceiling. The
// Medium and Slow tiers are backed by the pool directories named in the
// external interface; Medium's ceiling is its own configured default,
// independent of the Fast-tier limit a caller passes in here.
func NewAllocator(fastLimit int64) (*Allocator, error) {
	medium, err := newPool(DefaultMediumPoolDir, "vram", DefaultMediumPoolLimit)
	if err != nil {
		return nil, err
	}
	slow, err := newPool(DefaultSlowPoolDir, "vssd", DefaultSlowPoolLimit)
	if err != nil {
		return nil, err
	}
	return &Allocator{
		fastLimit:  fastLimit,
		fastLRU:    list.New(),
		medium:     medium,
		slow:       slow,
		spill:      newSpillExecutor(DefaultSpillWorkers, DefaultSpillMaxDepth),
		asyncSpill: DefaultAsyncSpill,
		records:    make(map[Handle]*record),
		pressure:   DefaultPressureThreshold,
	}, nil
}

// Close shuts down the allocator's spill executor. It does not free live
// allocations; callers are expected to have deallocated everything first.
func (a *Allocator) Close() {
	a.spill.shutdown()
}

// Allocate reserves size bytes, preferring the given tier and falling
// through to colder tiers when the preferred one has no room.
func (a *Allocator) Allocate(size int, preferred Tier) (Handle, error) {
	if size <= 0 {
		return 0, NewInvalidArgument("Allocator.Allocate", "size must be positive")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.checkPressureLocked()

	tier, region, err := a.allocateInTierLocked(size, preferred)
	if err != nil {
		// Fall through to colder tiers.
		for t := preferred + 1; t <= Slow && region == nil; t++ {
			tier, region, err = a.allocateInTierLocked(size, t)
		}
	}
	if region == nil {
		return 0, NewOutOfMemory("Allocator.Allocate", "no tier could satisfy the request")
	}

	a.nextID++
	h := Handle(a.nextID)
	rec := &record{
		handle:     h,
		tier:       tier,
		region:     region,
		size:       size,
		lastAccess: time.Now(),
		accessCnt:  1,
	}
	if tier == Fast {
		rec.lruElem = a.fastLRU.PushFront(rec)
	}
	a.records[h] = rec
	return h, nil
}

func (a *Allocator) allocateInTierLocked(size int, tier Tier) (Tier, *Region, error) {
	switch tier {
	case Fast:
		if a.fastUsed+int64(size) > a.fastLimit {
			return Fast, nil, ErrOutOfMemory
		}
		a.fastUsed += int64(size)
		return Fast, &Region{Bytes: make([]byte, size)}, nil
	case Medium:
		r, err := a.medium.allocate(size)
		if err != nil {
			return Medium, nil, err
		}
		return Medium, r, nil
	case Slow:
		r, err := a.slow.allocate(size)
		if err != nil {
			return Slow, nil, err
		}
		return Slow, r, nil
	default:
		return tier, nil, NewInvalidArgument("Allocator.allocateInTier", "unknown tier")
	}
}

func (a *Allocator) freeInTierLocked(rec *record) {
	switch rec.tier {
	case Fast:
		a.fastUsed -= int64(rec.size)
		if rec.lruElem != nil {
			a.fastLRU.Remove(rec.lruElem)
			rec.lruElem = nil
		}
	case Medium:
		a.medium.deallocate(rec.region)
	case Slow:
		a.slow.deallocate(rec.region)
	}
}

// Deallocate releases an allocation. Deallocating an unknown or already
// freed handle is a silent no-op, matching the tiered allocator's
// original "not found, already freed" behavior.
func (a *Allocator) Deallocate(h Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.records[h]
	if !ok {
		return
	}
	a.freeInTierLocked(rec)
	delete(a.records, h)
}

// Get returns the live bytes backing h, touching its access bookkeeping
// and opportunistically promoting hot data resident outside Fast.
func (a *Allocator) Get(h Handle) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.records[h]
	if !ok {
		return nil, NewUnknownHandle("Allocator.Get", h)
	}

	rec.lastAccess = time.Now()
	rec.accessCnt++
	if rec.lruElem != nil {
		a.fastLRU.MoveToFront(rec.lruElem)
	}

	if rec.accessCnt > PromotionThreshold && rec.tier != Fast {
		if a.fastUsed+int64(rec.size) <= a.fastLimit {
			a.migrateLocked(rec, Fast)
		}
	}

	return rec.region.Bytes, nil
}

// Pin marks a handle as non-evictable. Pinning an unknown handle is a
// no-op.
func (a *Allocator) Pin(h Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if rec, ok := a.records[h]; ok {
		rec.pinned = true
	}
}

// Unpin clears the non-evictable flag set by Pin.
func (a *Allocator) Unpin(h Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if rec, ok := a.records[h]; ok {
		rec.pinned = false
	}
}

// Promote moves an allocation to a warmer tier.
func (a *Allocator) Promote(h Handle, target Tier) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, ok := a.records[h]
	if !ok {
		return NewUnknownHandle("Allocator.Promote", h)
	}
	return a.migrateLocked(rec, target)
}

// Demote moves an allocation to a colder tier. Promote and Demote are the
// same underlying migration; only the caller's intent differs.
func (a *Allocator) Demote(h Handle, target Tier) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, ok := a.records[h]
	if !ok {
		return NewUnknownHandle("Allocator.Demote", h)
	}
	return a.migrateLocked(rec, target)
}

// migrateLocked copies rec's data into target, frees the old region, and
// updates tracking. Callers hold a.mu on entry and on every return; the
// handle table lock is held only across the splice (step 3) — the
// target-tier allocation, the copy, and the old-region release (steps
// 1, 2, 4) run with a.mu released whenever they touch a file-backed
// tier, so a migration does not hold it across file I/O. Allocate and
// Deallocate do call into the Medium and Slow pools (file creation,
// mmap, munmap, removal) with a.mu held.
func (a *Allocator) migrateLocked(rec *record, target Tier) error {
	if rec.tier == target {
		return nil
	}

	oldTier := rec.tier
	oldRegion := rec.region
	size := rec.size
	h := rec.handle

	// Step 1: allocate in the target tier.
	var newRegion *Region
	var err error
	if target == Fast {
		if a.fastUsed+int64(size) > a.fastLimit {
			return NewSpillFailed("Allocator.migrate", "allocate in target tier", ErrOutOfMemory)
		}
		a.fastUsed += int64(size)
		newRegion = &Region{Bytes: make([]byte, size)}
	} else {
		a.mu.Unlock()
		newRegion, err = a.allocateInColdTier(size, target)
		a.mu.Lock()
		if err != nil {
			return NewSpillFailed("Allocator.migrate", "allocate in target tier", err)
		}
	}

	// Step 2: copy the data, through the spill executor when
	// asynchronous spill is enabled.
	a.mu.Unlock()
	a.copyMigration(oldRegion, newRegion, oldTier, target)
	a.mu.Lock()

	if _, stillLive := a.records[h]; !stillLive {
		// h was deallocated while the copy was in flight; undo the
		// target-tier allocation and leave the handle table untouched.
		if target == Fast {
			a.fastUsed -= int64(size)
		} else {
			a.mu.Unlock()
			a.freeInColdTier(target, newRegion)
			a.mu.Lock()
		}
		return nil
	}

	// Step 3: splice the handle table entry. Lock held.
	if rec.lruElem != nil {
		a.fastLRU.Remove(rec.lruElem)
		rec.lruElem = nil
	}
	rec.region = newRegion
	rec.tier = target
	if target == Fast {
		rec.lruElem = a.fastLRU.PushFront(rec)
	}
	if target < oldTier {
		a.numPromotions++
	} else {
		a.numEvictions++
	}

	// Step 4: free the old region.
	if oldTier == Fast {
		a.fastUsed -= int64(size)
	} else {
		a.mu.Unlock()
		a.freeInColdTier(oldTier, oldRegion)
		a.mu.Lock()
	}

	return nil
}

// allocateInColdTier allocates from the Medium or Slow pool. It needs no
// handle-table lock: the pool guards itself with its own mutex.
func (a *Allocator) allocateInColdTier(size int, tier Tier) (*Region, error) {
	switch tier {
	case Medium:
		return a.medium.allocate(size)
	case Slow:
		return a.slow.allocate(size)
	default:
		return nil, NewInvalidArgument("Allocator.allocateInColdTier", "not a cold tier")
	}
}

// freeInColdTier releases a region back to the Medium or Slow pool.
func (a *Allocator) freeInColdTier(tier Tier, region *Region) {
	switch tier {
	case Medium:
		a.medium.deallocate(region)
	case Slow:
		a.slow.deallocate(region)
	}
}

// copyMigration copies oldRegion's bytes into newRegion. A demotion
// (target colder than the record's current tier) goes through the spill
// executor when asynchronous spill is enabled, matching the data flow
// where pressure-triggered eviction enqueues its copy as background
// work. A promotion moves data a caller is actively waiting on, so it
// always copies inline regardless of the flag.
func (a *Allocator) copyMigration(oldRegion, newRegion *Region, oldTier, target Tier) {
	if !a.asyncSpill || target < oldTier {
		copy(newRegion.Bytes, oldRegion.Bytes)
		return
	}

	done := make(chan struct{})
	a.spill.submit(spillJob{
		src:      oldRegion.Bytes,
		dst:      newRegion.Bytes,
		op:       opSpill,
		callback: func(bool) { close(done) },
	})
	<-done
}

// checkPressureLocked evicts the Fast-tier LRU unpinned record when Fast
// usage crosses the pressure threshold, trying Medium first and falling
// back to Slow if Medium has no room. If both fail, the eviction attempt
// is abandoned and the next pressure check retries. Callers hold a.mu.
func (a *Allocator) checkPressureLocked() {
	if a.fastLimit == 0 {
		return
	}
	usage := float64(a.fastUsed) / float64(a.fastLimit)
	if usage <= a.pressure {
		return
	}

	for e := a.fastLRU.Back(); e != nil; e = e.Prev() {
		rec := e.Value.(*record)
		if rec.pinned {
			continue
		}
		if err := a.migrateLocked(rec, Medium); err == nil {
			return
		}
		if err := a.migrateLocked(rec, Slow); err == nil {
			return
		}
		return
	}
}

// SetAsyncSpill toggles whether demotion copies route through the spill
// executor; promotion copies are always inline. Tests that want
// deterministic inline copies disable it.
func (a *Allocator) SetAsyncSpill(enabled bool) {
	a.mu.Lock()
	a.asyncSpill = enabled
	a.mu.Unlock()
}

// SetPressureThreshold sets the Fast-tier usage ratio above which the
// pressure check evicts the LRU unpinned record.
func (a *Allocator) SetPressureThreshold(threshold float64) {
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}
	a.mu.Lock()
	a.pressure = threshold
	a.mu.Unlock()
}

// Stats returns a snapshot of the allocator's tier usage and counters.
func (a *Allocator) Stats() AllocatorStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AllocatorStats{
		FastUsed:       a.fastUsed,
		FastLimit:      a.fastLimit,
		MediumUsed:     a.medium.usedBytes(),
		MediumLimit:    a.medium.totalBytes(),
		SlowUsed:       a.slow.usedBytes(),
		SlowLimit:      a.slow.totalBytes(),
		NumAllocations: len(a.records),
		NumEvictions:   a.numEvictions,
		NumPromotions:  a.numPromotions,
	}
}

// TierOf reports the tier an allocation currently resides in.
func (a *Allocator) TierOf(h Handle) (Tier, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, ok := a.records[h]
	if !ok {
		return Fast, false
	}
	return rec.tier, true
}
