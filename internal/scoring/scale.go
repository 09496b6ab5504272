// Package scoring converts primary point totals into secondary scores and
// performance levels.
package scoring

import "sync"

// ScaleMapper converts a primary score into a secondary score on a 0..100
// scale. max is the highest primary score the test allows.
type ScaleMapper interface {
	Scale(primary, max float64) float64
}

// ScaleFunc adapts a plain function to ScaleMapper.
type ScaleFunc func(primary, max float64) float64

func (f ScaleFunc) Scale(primary, max float64) float64 { return f(primary, max) }

const (
	KeyLinear = "linear"
	KeyEGERus = "ege.rus"
)

var (
	mu            sync.RWMutex
	scaleRegistry = map[string]ScaleMapper{}
)

// Register binds a mapper to a key like "ege.rus".
func Register(key string, m ScaleMapper) {
	mu.Lock()
	defer mu.Unlock()
	scaleRegistry[key] = m
}

// Lookup returns a registered mapper.
func Lookup(key string) (ScaleMapper, bool) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := scaleRegistry[key]
	return m, ok && m != nil
}

// Secondary applies the mapper registered under key, falling back to the
// linear scale when the key is unknown or empty.
func Secondary(key string, primary, max float64) float64 {
	if m, ok := Lookup(key); ok {
		return m.Scale(primary, max)
	}
	return Linear.Scale(primary, max)
}

// Linear maps primary/max onto 0..100, rounded to the nearest integer.
var Linear = ScaleFunc(func(primary, max float64) float64 {
	if max <= 0 || primary <= 0 {
		return 0
	}
	if primary > max {
		primary = max
	}
	return float64(int(primary/max*100 + 0.5))
})

func init() {
	Register(KeyLinear, Linear)
	Register(KeyEGERus, EGERus)
}
