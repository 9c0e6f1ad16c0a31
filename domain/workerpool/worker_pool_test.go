package workerpool_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Maia-DAO/smart-order-router/domain/workerpool"
)

func TestDispatcher_AllJobsComplete(t *testing.T) {
	const numJobs = 50

	dispatcher := workerpool.NewDispatcher[int](4)
	go dispatcher.Run()

	go func() {
		for i := 0; i < numJobs; i++ {
			i := i
			dispatcher.JobQueue <- workerpool.Job[int]{
				Task: func() (int, error) {
					if i%10 == 9 {
						return 0, errors.New("task failure")
					}
					return i * 2, nil
				},
			}
		}
	}()

	var results, failures int
	for i := 0; i < numJobs; i++ {
		result := <-dispatcher.ResultQueue
		if result.Err != nil {
			failures++
			continue
		}
		results++
		require.Zero(t, result.Result%2)
	}

	require.Equal(t, 45, results)
	require.Equal(t, 5, failures)

	dispatcher.Stop()
}
