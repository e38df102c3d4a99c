package pipeline

import "context"

// Queue is a bounded FIFO between the producer and the workers. Put and
// Stop block while it is full; Take blocks while it is empty.
type Queue struct {
	ch chan item
}

// NewQueue returns a queue holding at most capacity items. Capacities
// below 1 are raised to 1.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{ch: make(chan item, capacity)}
}

// Put enqueues rec. If ctx is done first, rec is not enqueued and the
// returned error matches ErrInterrupted.
func (q *Queue) Put(ctx context.Context, rec Record) error {
	return q.put(ctx, item{rec: rec}, "put")
}

// Stop enqueues one stop marker with the same blocking contract as Put.
func (q *Queue) Stop(ctx context.Context) error {
	return q.put(ctx, item{stop: true}, "stop")
}

func (q *Queue) put(ctx context.Context, it item, op string) error {
	if err := ctx.Err(); err != nil {
		return interrupted(op, err)
	}
	select {
	case q.ch <- it:
		return nil
	case <-ctx.Done():
		return interrupted(op, ctx.Err())
	}
}

// Take dequeues the oldest item. ok is false when the item was a stop
// marker. A done ctx yields an error matching ErrInterrupted.
func (q *Queue) Take(ctx context.Context) (rec Record, ok bool, err error) {
	select {
	case it := <-q.ch:
		if it.stop {
			return Record{}, false, nil
		}
		return it.rec, true, nil
	case <-ctx.Done():
		return Record{}, false, interrupted("take", ctx.Err())
	}
}

// Len returns the number of items currently queued.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}
