package queue

type config struct {
	capacity int
}

// Option applies a configuration option to an InMemoryQueue.
type Option func(*config)

// WithCapacity sets the maximum capacity of the queue.
func WithCapacity(capacity int) Option {
	return func(c *config) {
		if capacity > 0 {
			c.capacity = capacity
		}
	}
}
