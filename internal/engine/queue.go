package engine

import (
	"sync"

	"github.com/leandrodaf/midistream/sdk/contracts"
)

// messageQueue is a fixed-capacity ring of delivered messages. The capture
// context pushes, the consumer pops; the mutex serializes the two so the
// size/front/back triple stays consistent. A full queue drops the new
// arrival instead of blocking or overwriting: the capture context must
// never wait on the consumer.
type messageQueue struct {
	mu      sync.Mutex
	ring    []contracts.Message
	front   int
	back    int
	size    int
	dropped uint64
}

func newMessageQueue(capacity int) *messageQueue {
	if capacity <= 0 {
		return nil
	}
	return &messageQueue{ring: make([]contracts.Message, capacity)}
}

// Push stores msg at the back of the ring. It returns false when the queue
// is full and the message was dropped.
func (q *messageQueue) Push(msg contracts.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == len(q.ring) {
		q.dropped++
		return false
	}
	q.ring[q.back] = msg
	q.back++
	if q.back == len(q.ring) {
		q.back = 0
	}
	q.size++
	return true
}

// Pop removes and returns the oldest message. The second return value is
// false when the queue is empty.
func (q *messageQueue) Pop() (contracts.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return contracts.Message{}, false
	}
	msg := q.ring[q.front]
	q.ring[q.front] = contracts.Message{}
	q.front++
	if q.front == len(q.ring) {
		q.front = 0
	}
	q.size--
	return msg, true
}

// Len returns the number of queued messages.
func (q *messageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Dropped returns the number of messages discarded because the queue was full.
func (q *messageQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
