package directory

import (
	"context"
	"fmt"
	"testing"
)

type stubLookup struct {
	byPhone map[string]Identity
	byID    map[string]Identity
	probes  []string
	err     error
}

func (s *stubLookup) FindUserByPhone(ctx context.Context, normalized string) (Identity, bool, error) {
	s.probes = append(s.probes, normalized)
	if s.err != nil {
		return Identity{}, false, s.err
	}
	id, ok := s.byPhone[normalized]
	return id, ok, nil
}

func (s *stubLookup) FindUserByID(ctx context.Context, userID string) (Identity, bool, error) {
	if s.err != nil {
		return Identity{}, false, s.err
	}
	id, ok := s.byID[userID]
	return id, ok, nil
}

func TestResolveByPhoneShortCircuitsOnFirstHit(t *testing.T) {
	lookup := &stubLookup{
		byPhone: map[string]Identity{
			"62934567890": {UserID: "u1", DisplayName: "Ana", NotificationsEnabled: true},
		},
	}
	r := NewResolver(lookup)

	id, ok, err := r.ResolveByPhone(context.Background(), "+5562934567890")
	if err != nil {
		t.Fatalf("ResolveByPhone error = %v", err)
	}
	if !ok {
		t.Fatal("ResolveByPhone ok = false, want true")
	}
	if id.UserID != "u1" || id.MatchedFormat != "62934567890" {
		t.Fatalf("identity = %+v", id)
	}
	if len(lookup.probes) != 1 {
		t.Fatalf("probes = %v, want a single probe", lookup.probes)
	}
}

func TestResolveByPhoneFallsBackToLegacyFormat(t *testing.T) {
	lookup := &stubLookup{
		byPhone: map[string]Identity{
			"6234567890": {UserID: "u2", DisplayName: "Bia"},
		},
	}
	r := NewResolver(lookup)

	id, ok, err := r.ResolveByPhone(context.Background(), "62934567890")
	if err != nil {
		t.Fatalf("ResolveByPhone error = %v", err)
	}
	if !ok || id.UserID != "u2" {
		t.Fatalf("identity = %+v ok = %v", id, ok)
	}
	if id.MatchedFormat != "6234567890" {
		t.Fatalf("MatchedFormat = %q, want the nine-removed variant", id.MatchedFormat)
	}
	want := []string{"62934567890", "6234567890"}
	if len(lookup.probes) != len(want) || lookup.probes[0] != want[0] || lookup.probes[1] != want[1] {
		t.Fatalf("probes = %v, want %v", lookup.probes, want)
	}
}

func TestResolveByPhoneUnknownIsNotAnError(t *testing.T) {
	r := NewResolver(&stubLookup{})
	_, ok, err := r.ResolveByPhone(context.Background(), "6234567890")
	if err != nil {
		t.Fatalf("ResolveByPhone error = %v, want nil for unregistered number", err)
	}
	if ok {
		t.Fatal("ResolveByPhone ok = true, want false")
	}
}

func TestResolveByPhonePropagatesDirectoryFailure(t *testing.T) {
	lookup := &stubLookup{err: fmt.Errorf("directory unavailable")}
	r := NewResolver(lookup)
	_, ok, err := r.ResolveByPhone(context.Background(), "6234567890")
	if err == nil {
		t.Fatal("ResolveByPhone error = nil, want directory failure")
	}
	if ok {
		t.Fatal("ResolveByPhone ok = true on failure")
	}
	if len(lookup.probes) != 1 {
		t.Fatalf("probes = %v, want probing to stop on first failure", lookup.probes)
	}
}

func TestResolveByIDEmptyIsNotFound(t *testing.T) {
	r := NewResolver(&stubLookup{})
	_, ok, err := r.ResolveByID(context.Background(), "  ")
	if err != nil || ok {
		t.Fatalf("ResolveByID = ok=%v err=%v, want not found", ok, err)
	}
}
