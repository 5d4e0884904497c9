package gps

import "fmt"

// defaultHistogramWindow is the number of recent observations a
// Histogram keeps.
const defaultHistogramWindow = 100

// Histogram tracks the most common bin index over a bounded window of
// recent observations.
type Histogram struct {
	maxCounts    int
	totalIndices int
	indexCounts  []int
	indexQueue   []int
	totalCounts  int
	cursor       int
}

// NewHistogram creates a histogram over indices in [0, totalIndices)
// with a window of maxCounts observations.
func NewHistogram(totalIndices, maxCounts int) *Histogram {
	if totalIndices <= 0 || maxCounts <= 0 {
		panic(fmt.Sprintf("gps: invalid histogram dimensions %d/%d", totalIndices, maxCounts))
	}
	return &Histogram{
		maxCounts:    maxCounts,
		totalIndices: totalIndices,
		indexCounts:  make([]int, totalIndices),
		indexQueue:   make([]int, maxCounts),
	}
}

// PushIndex records an observation of index. The new value is written,
// the cursor advances, and once the window is full the slot now under
// the cursor (the next oldest) is the one decremented. The count sum
// stays equal to min(total pushes, window). The value overwritten on the
// first push past a full window is never decremented, so from then on
// the counts hold that first observation plus the most recent window-1.
func (h *Histogram) PushIndex(index int) {
	if index < 0 || index >= h.totalIndices {
		panic(fmt.Sprintf("gps: histogram index %d out of range [0,%d)", index, h.totalIndices))
	}
	h.indexQueue[h.cursor] = index
	h.indexCounts[index]++

	h.cursor = (h.cursor + 1) % h.maxCounts
	h.totalCounts++
	if h.totalCounts > h.maxCounts {
		h.totalCounts = h.maxCounts
		pop := h.indexQueue[h.cursor]
		h.indexCounts[pop]--
	}
}

// Mode returns the most frequent index in the window. Ties resolve to
// the lowest index; an empty histogram returns 0.
func (h *Histogram) Mode() int {
	maxCount := 0
	maxIndex := 0
	for i, count := range h.indexCounts {
		if count > maxCount {
			maxCount = count
			maxIndex = i
		}
	}
	return maxIndex
}

// TotalCounts returns the number of observations currently in the
// window, at most the window size.
func (h *Histogram) TotalCounts() int {
	return h.totalCounts
}
