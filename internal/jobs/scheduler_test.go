package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"buhoeats/api/internal/tasks"
)

type recordingQueue struct {
	failOn tasks.Type
	queued []tasks.Task
}

func (q *recordingQueue) Enqueue(ctx context.Context, values map[string]any) (string, error) {
	task, err := tasks.Decode(values)
	if err != nil {
		return "", err
	}
	if task.Type == q.failOn {
		return "", errors.New("redis: connection pool timeout")
	}
	q.queued = append(q.queued, task)
	return "0-1", nil
}

func TestEnqueueMaintenance(t *testing.T) {
	queue := &recordingQueue{failOn: tasks.TypePurgeSessions}
	s := NewScheduler(queue, "0 0 * * * *", zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 5, 10, 4, 0, 0, 0, time.UTC) }

	s.enqueueMaintenance()

	require.Len(t, queue.queued, 2)
	require.Equal(t, tasks.TypePruneLoginAttempts, queue.queued[0].Type)
	require.Equal(t, tasks.TypeRecomputeRatings, queue.queued[1].Type)
	require.NotEqual(t, queue.queued[0].ID, queue.queued[1].ID)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&recordingQueue{}, "every hour", zerolog.Nop())
	require.Error(t, s.Start())

	disabled := NewScheduler(&recordingQueue{}, "", zerolog.Nop())
	require.NoError(t, disabled.Start())
}
