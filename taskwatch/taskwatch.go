// Package taskwatch notifies users over the messaging channel shortly before
// their tasks fall due. It polls the task store on a fixed interval, resolves
// each task's owner through the user directory, and suppresses repeat
// notifications for the same task.
package taskwatch

import (
	"context"
	"time"
)

const (
	DefaultInterval    = 2 * time.Minute
	DefaultLeadTime    = 30 * time.Minute
	DefaultNotifiedCap = 1000
)

// Task is one incomplete work item fetched transiently from the external
// store. DueAt is in UTC, as persisted.
type Task struct {
	ID          string
	Title       string
	DueAt       time.Time
	OwnerUserID string
	ProjectID   string
	ProjectName string
}

// TaskStore fetches incomplete tasks whose due time falls in [from, to).
type TaskStore interface {
	FindDueSoon(ctx context.Context, from, to time.Time) ([]Task, error)
}

// Sender dispatches one notification text to a canonical chat address.
type Sender interface {
	SendText(ctx context.Context, address, text string) error
}
