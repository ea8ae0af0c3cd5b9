package supabase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Rhuann-Nunes/jarvis-bot/taskwatch"
)

type taskRow struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DueDate   time.Time `json:"due_date"`
	UserID    string    `json:"user_id"`
	ProjectID string    `json:"project_id"`
	Completed bool      `json:"completed"`
}

type projectRow struct {
	Name string `json:"name"`
}

// FindDueSoon returns the open tasks whose due_date falls strictly inside
// (from, to). Project names are resolved per distinct project ID; a failed
// project lookup leaves the name empty rather than dropping the task.
func (c *Client) FindDueSoon(ctx context.Context, from, to time.Time) ([]taskwatch.Task, error) {
	query := url.Values{}
	query.Set("select", "id,title,due_date,user_id,project_id,completed")
	query.Set("completed", "eq.false")
	query.Add("due_date", "gt."+from.UTC().Format(time.RFC3339))
	query.Add("due_date", "lt."+to.UTC().Format(time.RFC3339))

	var rows []taskRow
	if err := c.get(ctx, "tasks", query, &rows); err != nil {
		return nil, fmt.Errorf("find due tasks: %w", err)
	}

	names := make(map[string]string)
	tasks := make([]taskwatch.Task, 0, len(rows))
	for _, row := range rows {
		task := taskwatch.Task{
			ID:          row.ID,
			Title:       row.Title,
			DueAt:       row.DueDate,
			OwnerUserID: row.UserID,
			ProjectID:   row.ProjectID,
		}
		if row.ProjectID != "" {
			name, ok := names[row.ProjectID]
			if !ok {
				name, _ = c.projectName(ctx, row.ProjectID)
				names[row.ProjectID] = name
			}
			task.ProjectName = name
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (c *Client) projectName(ctx context.Context, projectID string) (string, error) {
	query := url.Values{}
	query.Set("select", "name")
	query.Set("id", "eq."+projectID)
	query.Set("limit", "1")

	var rows []projectRow
	if err := c.get(ctx, "projects", query, &rows); err != nil {
		return "", fmt.Errorf("find project %s: %w", projectID, err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return strings.TrimSpace(rows[0].Name), nil
}
