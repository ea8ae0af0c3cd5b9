package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, "test-key", Options{HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient error = %v", err)
	}
	return c
}

func TestFindUserByPhoneHit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/user_preferences" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("apikey"); got != "test-key" {
			t.Errorf("apikey header = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization header = %q", got)
		}
		q := r.URL.Query()
		if got := q.Get("phone_number"); got != "eq.62934567890" {
			t.Errorf("phone filter = %q", got)
		}
		w.Write([]byte(`[{"user_id":"u1","username":"Ana","phone_number":"62934567890","allow_notifications":true,"form_of_address":"Sra."}]`))
	})

	id, ok, err := c.FindUserByPhone(context.Background(), "62934567890")
	if err != nil || !ok {
		t.Fatalf("FindUserByPhone = (%v, %v, %v)", id, ok, err)
	}
	if id.UserID != "u1" || id.DisplayName != "Ana" || !id.NotificationsEnabled || id.FormOfAddress != "Sra." {
		t.Fatalf("identity = %+v", id)
	}
}

func TestFindUserByPhoneMissIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	})

	_, ok, err := c.FindUserByPhone(context.Background(), "6234567890")
	if err != nil {
		t.Fatalf("FindUserByPhone error = %v, want nil on miss", err)
	}
	if ok {
		t.Fatal("FindUserByPhone ok = true, want miss")
	}
}

func TestFindUserByIDBlankDisplayNameFallsBack(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"user_id":"u1","username":"  ","allow_notifications":false}]`))
	})

	id, ok, err := c.FindUserByID(context.Background(), "u1")
	if err != nil || !ok {
		t.Fatalf("FindUserByID = (%v, %v)", ok, err)
	}
	if id.DisplayName != "Usuário" {
		t.Fatalf("DisplayName = %q, want fallback", id.DisplayName)
	}
}

func TestFindUserServerErrorPropagates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "permission denied", http.StatusUnauthorized)
	})

	if _, _, err := c.FindUserByPhone(context.Background(), "62934567890"); err == nil {
		t.Fatal("FindUserByPhone error = nil, want server failure")
	}
}

func TestFindDueSoonFiltersAndResolvesProjects(t *testing.T) {
	projectLookups := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/v1/tasks":
			q := r.URL.Query()
			if got := q.Get("completed"); got != "eq.false" {
				t.Errorf("completed filter = %q", got)
			}
			bounds := q["due_date"]
			if len(bounds) != 2 || bounds[0] != "gt.2026-03-01T12:00:00Z" || bounds[1] != "lt.2026-03-01T12:30:00Z" {
				t.Errorf("due_date filters = %v", bounds)
			}
			w.Write([]byte(`[
				{"id":"t1","title":"a","due_date":"2026-03-01T12:10:00Z","user_id":"u1","project_id":"p1"},
				{"id":"t2","title":"b","due_date":"2026-03-01T12:20:00Z","user_id":"u1","project_id":"p1"},
				{"id":"t3","title":"c","due_date":"2026-03-01T12:25:00Z","user_id":"u2","project_id":""}
			]`))
		case "/rest/v1/projects":
			projectLookups++
			if got := r.URL.Query().Get("id"); got != "eq.p1" {
				t.Errorf("project filter = %q", got)
			}
			w.Write([]byte(`[{"name":"Financeiro"}]`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.Write([]byte("[]"))
		}
	})

	from := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tasks, err := c.FindDueSoon(context.Background(), from, from.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("FindDueSoon error = %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("tasks = %d, want 3", len(tasks))
	}
	if tasks[0].ProjectName != "Financeiro" || tasks[1].ProjectName != "Financeiro" {
		t.Fatalf("project names = %q, %q", tasks[0].ProjectName, tasks[1].ProjectName)
	}
	if tasks[2].ProjectName != "" {
		t.Fatalf("projectless task name = %q, want empty", tasks[2].ProjectName)
	}
	if projectLookups != 1 {
		t.Fatalf("project lookups = %d, want 1 (memoized per call)", projectLookups)
	}
}

func TestFindDueSoonQueryFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "timeout", http.StatusServiceUnavailable)
	})

	if _, err := c.FindDueSoon(context.Background(), time.Now(), time.Now().Add(time.Minute)); err == nil {
		t.Fatal("FindDueSoon error = nil, want failure")
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient("", "key", Options{}); err == nil {
		t.Fatal("NewClient with empty URL: error = nil")
	}
	if _, err := NewClient("https://example.supabase.co", " ", Options{}); err == nil {
		t.Fatal("NewClient with empty key: error = nil")
	}
}
