package queue

// Queue is a bounded FIFO shared between a producer goroutine (e.g. a network
// read loop) and a consumer that drains it once per tick.
type Queue interface {
	Enqueue(item interface{}) error
	ReadAllMessages() ([]interface{}, error)
	Size() int
	ClearQueue() error
}
