package chat

import (
	"sync"
	"time"

	"klav_chat_server/pkg/constants"
)

// QueuedDM is one direct message parked for an offline recipient.
type QueuedDM struct {
	Room         string
	From         string
	FromNickname string
	Text         string
	At           time.Time
}

// OfflineQueue holds per-recipient FIFO queues of undelivered DMs,
// bounded at constants.OFFLINE_QUEUE_CAP each; when full the oldest entry
// is dropped to admit the newest.
type OfflineQueue struct {
	mu     sync.Mutex
	queues map[string][]QueuedDM
}

func NewOfflineQueue() *OfflineQueue {
	return &OfflineQueue{queues: make(map[string][]QueuedDM)}
}

// Enqueue parks a DM for the recipient.
func (q *OfflineQueue) Enqueue(recipient string, dm QueuedDM) {
	q.mu.Lock()
	defer q.mu.Unlock()
	queue := q.queues[recipient]
	if len(queue) >= constants.OFFLINE_QUEUE_CAP {
		queue = queue[1:]
	}
	q.queues[recipient] = append(queue, dm)
}

// Drain removes and returns the recipient's queued DMs in enqueue order.
func (q *OfflineQueue) Drain(recipient string) []QueuedDM {
	q.mu.Lock()
	defer q.mu.Unlock()
	queue := q.queues[recipient]
	if len(queue) == 0 {
		return nil
	}
	delete(q.queues, recipient)
	return queue
}

// Requeue puts drained DMs back at the front, preserving order. Used when
// the recipient's connections vanished between drain and delivery.
func (q *OfflineQueue) Requeue(recipient string, dms []QueuedDM) {
	if len(dms) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	merged := append(dms, q.queues[recipient]...)
	if over := len(merged) - constants.OFFLINE_QUEUE_CAP; over > 0 {
		merged = merged[over:]
	}
	q.queues[recipient] = merged
}

// Len reports the recipient's queue depth.
func (q *OfflineQueue) Len(recipient string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues[recipient])
}
