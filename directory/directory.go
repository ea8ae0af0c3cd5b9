// Package directory resolves raw inbound phone numbers and stable user ids to
// registered users through the external user directory.
package directory

import (
	"context"
	"strings"

	"github.com/Rhuann-Nunes/jarvis-bot/phone"
)

// Identity is a registered user as known to the directory. Immutable once
// returned; resolution always re-queries the directory so the opt-in flag is
// never stale.
type Identity struct {
	UserID               string
	DisplayName          string
	NotificationsEnabled bool

	// PhoneNumber is the number as stored in the directory, used when the
	// bot initiates contact. FormOfAddress is the user's preferred honorific
	// ("Sr.", "Dra.", ...), possibly empty.
	PhoneNumber   string
	FormOfAddress string

	// MatchedFormat is the candidate digit string that matched a stored
	// record, kept for diagnostics. Empty for id-based lookups.
	MatchedFormat string
}

// Lookup is the narrow directory contract. The bool distinguishes "no such
// user" (expected, not an error) from a lookup failure.
type Lookup interface {
	FindUserByPhone(ctx context.Context, normalized string) (Identity, bool, error)
	FindUserByID(ctx context.Context, userID string) (Identity, bool, error)
}

type Resolver struct {
	lookup Lookup
}

func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// ResolveByPhone probes the directory with each phone format candidate in
// order and stops at the first hit. A miss across all candidates returns
// ok=false with a nil error; a directory failure aborts the probe so the
// caller can retry instead of treating the user as unregistered.
func (r *Resolver) ResolveByPhone(ctx context.Context, raw string) (Identity, bool, error) {
	for _, candidate := range phone.Candidates(raw) {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		id, ok, err := r.lookup.FindUserByPhone(ctx, candidate)
		if err != nil {
			return Identity{}, false, err
		}
		if ok {
			id.MatchedFormat = candidate
			return id, true, nil
		}
	}
	return Identity{}, false, nil
}

// ResolveByID looks a user up by stable id, skipping candidate probing. Used
// by the task watcher, which already holds the id from the work item.
func (r *Resolver) ResolveByID(ctx context.Context, userID string) (Identity, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Identity{}, false, nil
	}
	return r.lookup.FindUserByID(ctx, userID)
}
