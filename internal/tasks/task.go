package tasks

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"buhoeats/api/internal/ids"
)

type Type string

const (
	TypePruneLoginAttempts Type = "prune_login_attempts"
	TypePurgeSessions      Type = "purge_sessions"
	TypeRecomputeRatings   Type = "recompute_ratings"
)

// MaintenanceTypes is the set the scheduler enqueues on every tick.
var MaintenanceTypes = []Type{TypePruneLoginAttempts, TypePurgeSessions, TypeRecomputeRatings}

// Task is the payload carried by one stream message.
type Task struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	RequestedAt time.Time `json:"requestedAt"`
}

func New(taskType Type, now time.Time) Task {
	return Task{ID: ids.New(), Type: taskType, RequestedAt: now.UTC()}
}

// Values flattens the task into stream fields.
func (t Task) Values() map[string]any {
	return map[string]any{
		"id":          t.ID,
		"type":        string(t.Type),
		"requestedAt": t.RequestedAt.Format(time.RFC3339Nano),
	}
}

// Decode reads a task back from stream fields.
func Decode(values map[string]any) (Task, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return Task{}, fmt.Errorf("marshal stream values: %w", err)
	}
	var task Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return Task{}, fmt.Errorf("unmarshal task: %w", err)
	}
	return task, nil
}
