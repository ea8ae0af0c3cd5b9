package supabase

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Rhuann-Nunes/jarvis-bot/directory"
)

const userColumns = "user_id,username,phone_number,allow_notifications,form_of_address"

type userRow struct {
	UserID             string `json:"user_id"`
	Username           string `json:"username"`
	PhoneNumber        string `json:"phone_number"`
	AllowNotifications bool   `json:"allow_notifications"`
	FormOfAddress      string `json:"form_of_address"`
}

func (r userRow) identity() directory.Identity {
	name := strings.TrimSpace(r.Username)
	if name == "" {
		name = "Usuário"
	}
	return directory.Identity{
		UserID:               r.UserID,
		DisplayName:          name,
		NotificationsEnabled: r.AllowNotifications,
		PhoneNumber:          r.PhoneNumber,
		FormOfAddress:        strings.TrimSpace(r.FormOfAddress),
	}
}

// FindUserByPhone looks up one user_preferences row by exact stored phone
// number. No rows is a miss, not a failure.
func (c *Client) FindUserByPhone(ctx context.Context, phoneNumber string) (directory.Identity, bool, error) {
	return c.findUser(ctx, "phone_number", phoneNumber)
}

// FindUserByID looks up one user_preferences row by user ID.
func (c *Client) FindUserByID(ctx context.Context, userID string) (directory.Identity, bool, error) {
	return c.findUser(ctx, "user_id", userID)
}

func (c *Client) findUser(ctx context.Context, column, value string) (directory.Identity, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return directory.Identity{}, false, nil
	}
	query := url.Values{}
	query.Set("select", userColumns)
	query.Set(column, "eq."+value)
	query.Set("limit", "1")

	var rows []userRow
	if err := c.get(ctx, "user_preferences", query, &rows); err != nil {
		return directory.Identity{}, false, fmt.Errorf("find user by %s: %w", column, err)
	}
	if len(rows) == 0 {
		return directory.Identity{}, false, nil
	}
	return rows[0].identity(), true, nil
}
