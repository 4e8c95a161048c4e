package task

// Notify credits one completed predecessor job toward coordKey's
// dependency count, initializing the count from initial the first time
// coordKey is seen (the caller supplies prevDependencies(coord)), and
// reports whether the count has reached zero.
func (t *Task) Notify(coordKey string, initial int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cnt, ok := t.depHash[coordKey]
	if !ok {
		cnt = initial
	}
	cnt--
	if cnt <= 0 {
		delete(t.depHash, coordKey)
		return true
	}
	t.depHash[coordKey] = cnt
	return false
}

// MarkLast records rank as the worker askJobs must treat as the one
// finishing this task's outstanding self-jobs.
func (t *Task) MarkLast(rank int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = rank
}

// IsLast reports whether rank is the worker marked by MarkLast.
func (t *Task) IsLast(rank int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last == rank
}

// ResetLast clears the "last" marker back to its sentinel.
func (t *Task) ResetLast() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = noLast
}

// DecrementSelfJobsCount decrements the outstanding self-job count for
// iter, seeding it from iteration 0's count the first time a later
// iteration is touched, and returns the count after decrementing.
func (t *Task) DecrementSelfJobsCount(iter int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cnt, ok := t.selfJobsCount[iter]
	if !ok {
		cnt = t.selfJobsCount[0]
	}
	cnt--
	t.selfJobsCount[iter] = cnt
	return cnt
}

// SelfJobsCount reports the current outstanding self-job count for iter
// without decrementing it.
func (t *Task) SelfJobsCount(iter int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cnt, ok := t.selfJobsCount[iter]; ok {
		return cnt
	}
	return t.selfJobsCount[0]
}
