package vgpu

import (
	"container/heap"
	"sync"
	"time"
)

// spillOp distinguishes the two directions a spill job copies data.
type spillOp int

const (
	opSpill spillOp = iota
	opPrefetch
)

// spillJob is one inter-tier copy: copy src into dst and invoke callback
// with whether the copy succeeded. Higher priority runs first.
type spillJob struct {
	src, dst []byte
	op       spillOp
	priority int
	callback func(bool)
}

// spillQueue is a max-heap by priority; equal-priority jobs run in
// submission order, matching the original manager's "lower value is lower
// priority" comparator used as a std::priority_queue ordering.
type spillQueue struct {
	jobs []spillJob
	seq  []int64
	next int64
}

func (q *spillQueue) Len() int { return len(q.jobs) }
func (q *spillQueue) Less(i, j int) bool {
	if q.jobs[i].priority != q.jobs[j].priority {
		return q.jobs[i].priority > q.jobs[j].priority
	}
	return q.seq[i] < q.seq[j]
}
func (q *spillQueue) Swap(i, j int) {
	q.jobs[i], q.jobs[j] = q.jobs[j], q.jobs[i]
	q.seq[i], q.seq[j] = q.seq[j], q.seq[i]
}
func (q *spillQueue) Push(x interface{}) {
	q.jobs = append(q.jobs, x.(spillJob))
	q.seq = append(q.seq, q.next)
	q.next++
}
func (q *spillQueue) Pop() interface{} {
	n := len(q.jobs)
	job := q.jobs[n-1]
	q.jobs = q.jobs[:n-1]
	q.seq = q.seq[:n-1]
	return job
}

// SpillStats tracks cumulative spill/prefetch activity.
type SpillStats struct {
	TotalSpills        int64
	BytesSpilled       int64
	AvgSpillTimeMs     float64
	TotalPrefetches    int64
	BytesPrefetched    int64
	AvgPrefetchTimeMs  float64
}

// spillExecutor is a fixed pool of workers draining a priority queue of
// inter-tier copy jobs, with synchronous back-pressure fallback when the
// queue is saturated.
type spillExecutor struct {
	mu           sync.Mutex
	queue        spillQueue
	cond         *sync.Cond
	pending      int
	shutdownFlag bool
	maxDepth     int
	useIOUring   bool

	statsMu sync.Mutex
	stats   SpillStats

	wg sync.WaitGroup
}

func newSpillExecutor(numWorkers, maxDepth int) *spillExecutor {
	e := &spillExecutor{maxDepth: maxDepth}
	e.cond = sync.NewCond(&e.mu)
	for i := 0; i < numWorkers; i++ {
		e.wg.Add(1)
		go e.workerLoop()
	}
	return e
}

// submit enqueues a job, or runs it synchronously if the queue is at
// capacity (back-pressure instead of unbounded growth).
func (e *spillExecutor) submit(job spillJob) {
	e.mu.Lock()
	if len(e.queue.jobs) >= e.maxDepth {
		e.mu.Unlock()
		e.processJob(job)
		return
	}
	heap.Push(&e.queue, job)
	e.pending++
	e.mu.Unlock()
	e.cond.Signal()
}

func (e *spillExecutor) submitBatch(jobs []spillJob) {
	e.mu.Lock()
	for _, j := range jobs {
		heap.Push(&e.queue, j)
		e.pending++
	}
	e.mu.Unlock()
	e.cond.Broadcast()
}

// waitAll blocks the caller until the queue drains.
func (e *spillExecutor) waitAll() {
	for {
		e.mu.Lock()
		p := e.pending
		e.mu.Unlock()
		if p == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (e *spillExecutor) cancelPending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	canceled := len(e.queue.jobs)
	e.queue.jobs = nil
	e.queue.seq = nil
	e.pending -= canceled
	return canceled
}

func (e *spillExecutor) shutdown() {
	e.mu.Lock()
	if e.shutdownFlag {
		e.mu.Unlock()
		return
	}
	e.shutdownFlag = true
	e.mu.Unlock()
	e.waitAll()
	e.cond.Broadcast()
	e.wg.Wait()
}

func (e *spillExecutor) pendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

func (e *spillExecutor) getStats() SpillStats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

func (e *spillExecutor) resetStats() {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.stats = SpillStats{}
}

func (e *spillExecutor) workerLoop() {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		for len(e.queue.jobs) == 0 && !e.shutdownFlag {
			e.cond.Wait()
		}
		if e.shutdownFlag && len(e.queue.jobs) == 0 {
			e.mu.Unlock()
			return
		}
		job := heap.Pop(&e.queue).(spillJob)
		e.mu.Unlock()

		e.processJob(job)

		e.mu.Lock()
		e.pending--
		e.mu.Unlock()
	}
}

func (e *spillExecutor) processJob(job spillJob) {
	start := time.Now()

	success := false
	if e.useIOUring {
		success = e.tryIOUringSubmit(job)
	}
	if !success {
		e.fallbackSyncCopy(job)
		success = true
	}

	elapsedMs := float64(time.Since(start)) / float64(time.Millisecond)

	e.statsMu.Lock()
	switch job.op {
	case opSpill:
		e.stats.TotalSpills++
		e.stats.BytesSpilled += int64(job.bytesLen())
		e.stats.AvgSpillTimeMs = runningAverage(e.stats.AvgSpillTimeMs, e.stats.TotalSpills, elapsedMs)
	case opPrefetch:
		e.stats.TotalPrefetches++
		e.stats.BytesPrefetched += int64(job.bytesLen())
		e.stats.AvgPrefetchTimeMs = runningAverage(e.stats.AvgPrefetchTimeMs, e.stats.TotalPrefetches, elapsedMs)
	}
	e.statsMu.Unlock()

	if job.callback != nil {
		job.callback(success)
	}
}

func runningAverage(avg float64, count int64, sample float64) float64 {
	return (avg*float64(count-1) + sample) / float64(count)
}

func (j spillJob) bytesLen() int { return len(j.src) }

// tryIOUringSubmit is a named hook for an io_uring fast path on Linux.
// It is never wired to an actual ring; it exists so enabling it later is
// a one-function change rather than a new code path.
func (e *spillExecutor) tryIOUringSubmit(job spillJob) bool {
	return false
}

func (e *spillExecutor) fallbackSyncCopy(job spillJob) {
	copy(job.dst, job.src)
}
