package utils

import (
	"cmp"
	"slices"
	"sync"
)

var gdalMu sync.Mutex

// ExecuteWithGDALLock serializes access to GDAL, which is not safe to call
// from multiple goroutines on the same dataset.
func ExecuteWithGDALLock(fn func()) {
	gdalMu.Lock()
	defer gdalMu.Unlock()
	fn()
}

// SortedKeys returns the keys of a map in ascending order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
