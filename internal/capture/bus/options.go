package bus

// Option applies a configuration option to the bus.
type Option func(*InMemoryBus)

// WithCapacity bounds the number of buffered events.
func WithCapacity(n int) Option {
	return func(b *InMemoryBus) {
		if n > 0 {
			b.capacity = n
		}
	}
}
