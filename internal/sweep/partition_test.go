package sweep

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/joint-strength/internal/failures"
)

func numberedTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{Index: i, Study: fmt.Sprintf("s%d", i)}
	}
	return tasks
}

func TestPartitionSizes(t *testing.T) {
	for n := 1; n <= 25; n++ {
		tasks := numberedTasks(n)
		for total := 1; total <= n; total++ {
			baseSize := n / total
			remainder := n % total
			for batch := 1; batch <= total; batch++ {
				part, err := Partition(tasks, batch, total)
				require.NoError(t, err)
				want := baseSize
				if batch <= remainder {
					want++
				}
				assert.Lenf(t, part, want, "n=%d total=%d batch=%d", n, total, batch)
			}
		}
	}
}

func TestPartitionRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 7, 10, 100, 1920} {
		tasks := numberedTasks(n)
		for _, total := range []int{1, 2, 3, 7, 10, 100} {
			if total > n {
				continue
			}
			var joined []Task
			for batch := 1; batch <= total; batch++ {
				part, err := Partition(tasks, batch, total)
				require.NoError(t, err)
				joined = append(joined, part...)
			}
			require.Equalf(t, tasks, joined, "n=%d total=%d", n, total)
		}
	}
}

func TestPartitionExample(t *testing.T) {
	tasks := numberedTasks(10)
	var sizes []int
	for batch := 1; batch <= 3; batch++ {
		part, err := Partition(tasks, batch, 3)
		require.NoError(t, err)
		sizes = append(sizes, len(part))
	}
	assert.Equal(t, []int{4, 3, 3}, sizes)

	part, err := Partition(tasks, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, part[0].Index)
	assert.Equal(t, 6, part[2].Index)
}

func TestPartitionErrors(t *testing.T) {
	tasks := numberedTasks(5)
	testCases := []struct {
		name     string
		batch    int
		total    int
		wantCode string
	}{
		{"too_many_batches", 1, 6, failures.CodeTooManyBatches},
		{"zero_batches", 1, 0, failures.CodeTooManyBatches},
		{"batch_zero", 0, 5, failures.CodeBatchOutOfRange},
		{"batch_past_end", 4, 3, failures.CodeBatchOutOfRange},
		{"negative_batch", -1, 3, failures.CodeBatchOutOfRange},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			part, err := Partition(tasks, tc.batch, tc.total)
			assert.Nil(t, part)
			var cerr *failures.ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tc.wantCode, cerr.Code)
			assert.ErrorIs(t, err, failures.ErrConfiguration)
		})
	}
}

func TestPartitionDoesNotShareCapacity(t *testing.T) {
	tasks := numberedTasks(4)
	part, err := Partition(tasks, 1, 2)
	require.NoError(t, err)
	part = append(part, Task{Index: 99})
	assert.Equal(t, 2, tasks[2].Index, "appending to a batch must not clobber the next batch")
}

func TestSelectBatch(t *testing.T) {
	tasks := numberedTasks(6)

	all, err := SelectBatch(tasks, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	part, err := SelectBatch(tasks, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, []int{part[0].Index, part[1].Index})

	_, err = SelectBatch(tasks, 2, 0)
	var cerr *failures.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, failures.CodeIncompleteBatch, cerr.Code)

	_, err = SelectBatch(tasks, 0, 3)
	assert.ErrorIs(t, err, failures.ErrConfiguration)
}

func TestBatchLabel(t *testing.T) {
	assert.Equal(t, "", BatchLabel(0))
	assert.Equal(t, "7", BatchLabel(7))
}
