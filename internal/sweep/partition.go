package sweep

import (
	"strconv"

	"github.com/banshee-data/joint-strength/internal/failures"
)

// Bounds returns the half-open [start, end) slice of an n-item list that
// belongs to batch batchIndex (1-based) of totalBatches. The first n%N
// batches hold one extra item, so sizes never differ by more than one and
// the batches tile the list without gaps or overlap.
func Bounds(n, batchIndex, totalBatches int) (start, end int, err error) {
	if totalBatches < 1 {
		return 0, 0, failures.Configf(failures.CodeTooManyBatches, "number of batches must be at least 1, got %d", totalBatches)
	}
	if totalBatches > n {
		return 0, 0, failures.Configf(failures.CodeTooManyBatches,
			"number of batches (%d) is larger than the number of tasks (%d)", totalBatches, n)
	}
	if batchIndex < 1 || batchIndex > totalBatches {
		return 0, 0, failures.Configf(failures.CodeBatchOutOfRange,
			"batch %d is outside [1, %d]", batchIndex, totalBatches)
	}

	baseSize := n / totalBatches
	remainder := n % totalBatches

	i := batchIndex - 1
	start = i*baseSize + min(i, remainder)
	end = start + baseSize
	if i < remainder {
		end++
	}
	return start, end, nil
}

// Partition returns the contiguous batch batchIndex (1-based) of totalBatches.
// The returned slice aliases tasks.
func Partition(tasks []Task, batchIndex, totalBatches int) ([]Task, error) {
	start, end, err := Bounds(len(tasks), batchIndex, totalBatches)
	if err != nil {
		return nil, err
	}
	return tasks[start:end:end], nil
}

// SelectBatch applies the batch invocation rule: with both batch and
// numBatches zero the whole task list is one batch; otherwise both must be
// given and the selected partition is returned.
func SelectBatch(tasks []Task, batch, numBatches int) ([]Task, error) {
	if batch == 0 && numBatches == 0 {
		return tasks, nil
	}
	if batch == 0 || numBatches == 0 {
		return nil, failures.Configf(failures.CodeIncompleteBatch,
			"batch and number of batches must be given together (batch=%d, batches=%d)", batch, numBatches)
	}
	return Partition(tasks, batch, numBatches)
}

// BatchLabel names the output of a batch: empty for an unbatched run, the
// decimal batch index otherwise.
func BatchLabel(batch int) string {
	if batch <= 0 {
		return ""
	}
	return strconv.Itoa(batch)
}
