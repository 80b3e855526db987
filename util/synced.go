package util

import "sync/atomic"

// SafeCounter is an int counter that is safe to use concurrently.
type SafeCounter struct {
	value int32
}

// NewSafeCounter creates a new SafeCounter starting at zero.
func NewSafeCounter() *SafeCounter {
	return &SafeCounter{}
}

// Increment increments the counter's value and returns the new value.
func (sc *SafeCounter) Increment() int {
	return int(atomic.AddInt32(&sc.value, 1))
}

// Add adds a delta to the counter's value and returns the new value.
func (sc *SafeCounter) Add(delta int) int {
	return int(atomic.AddInt32(&sc.value, int32(delta)))
}

// Set sets the value of the counter.
func (sc *SafeCounter) Set(newValue int) {
	atomic.StoreInt32(&sc.value, int32(newValue))
}

// Value returns the current value of the counter.
func (sc *SafeCounter) Value() int {
	return int(atomic.LoadInt32(&sc.value))
}

// SafeFlag is a bool that is safe to use concurrently. The capture and
// playback workers poll it as their cooperative stop flag.
type SafeFlag struct {
	value int32
}

// NewSafeFlag creates a new SafeFlag, initially false.
func NewSafeFlag() *SafeFlag {
	return &SafeFlag{}
}

// Set sets the value of the flag and returns the new value.
func (sf *SafeFlag) Set(newValue bool) bool {
	var intValue int32
	if newValue {
		intValue = 1
	}
	atomic.StoreInt32(&sf.value, intValue)
	return newValue
}

// Value returns the current value of the flag.
func (sf *SafeFlag) Value() bool {
	return atomic.LoadInt32(&sf.value) != 0
}
