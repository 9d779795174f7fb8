package batch

import "fmt"

// IndexRange is an inclusive range of input positions.
type IndexRange struct {
	From int
	To   int
}

// SplitRange splits [from, to] into chunks of at most batchSize.
func SplitRange(from, to, batchSize int) ([]IndexRange, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if from < 0 || to < from {
		return nil, fmt.Errorf("invalid range %d..%d", from, to)
	}

	ranges := make([]IndexRange, 0, (to-from)/batchSize+1)
	for start := from; start <= to; start += batchSize {
		end := start + batchSize - 1
		if end > to {
			end = to
		}
		ranges = append(ranges, IndexRange{From: start, To: end})
	}
	return ranges, nil
}
