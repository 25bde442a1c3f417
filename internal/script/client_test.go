package script

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func rangeBounds() (time.Time, time.Time) {
	start := time.Date(2024, time.February, 25, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 42)
}

func TestFetchRangeSendsRouteTokenAndBounds(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"events":[{"title":"Lunch","start":"2024-03-05T12:00:00Z"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-token", 0)
	start, end := rangeBounds()
	events, err := c.FetchRange(context.Background(), start, end)
	if err != nil {
		t.Fatalf("FetchRange returned error: %v", err)
	}

	if len(events) != 1 || events[0].Title != "Lunch" {
		t.Errorf("events = %+v, want one Lunch event", events)
	}
	if got := gotQuery.Get("route"); got != "range" {
		t.Errorf("route = %q, want range", got)
	}
	if got := gotQuery.Get("token"); got != "secret-token" {
		t.Errorf("token = %q, want secret-token", got)
	}
	if got := gotQuery.Get("start"); got != "2024-02-25" {
		t.Errorf("start = %q, want 2024-02-25", got)
	}
	if got := gotQuery.Get("end"); got != "2024-04-07" {
		t.Errorf("end = %q, want 2024-04-07", got)
	}
}

func TestFetchRangeMissingConfig(t *testing.T) {
	t.Parallel()

	c := New("", "", 0)
	start, end := rangeBounds()
	_, err := c.FetchRange(context.Background(), start, end)
	if err == nil {
		t.Fatal("expected error for unconfigured client")
	}
	if got := KindOf(err); got != KindConfigMissing {
		t.Errorf("kind = %s, want %s", got, KindConfigMissing)
	}
}

func TestFetchRangeAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"bad token"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "wrong", 0)
	start, end := rangeBounds()
	_, err := c.FetchRange(context.Background(), start, end)
	if err == nil {
		t.Fatal("expected error for ok=false response")
	}
	if got := KindOf(err); got != KindAPI {
		t.Errorf("kind = %s, want %s", got, KindAPI)
	}
	var se *Error
	if !errors.As(err, &se) || se.Msg != "bad token" {
		t.Errorf("error = %v, want backend message \"bad token\"", err)
	}
}

func TestFetchRangeTransportFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http 500", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := New(srv.URL, "tok", 0)
			start, end := rangeBounds()
			_, err := c.FetchRange(context.Background(), start, end)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := KindOf(err); got != KindTransport {
				t.Errorf("kind = %s, want %s", got, KindTransport)
			}
		})
	}
}

func TestFetchRangeTimeout(t *testing.T) {
	t.Parallel()

	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	c := New(srv.URL, "tok", 50*time.Millisecond)
	start, end := rangeBounds()
	_, err := c.FetchRange(context.Background(), start, end)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if got := KindOf(err); got != KindTransport {
		t.Errorf("kind = %s, want %s", got, KindTransport)
	}
}

func TestFetchPhotos(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("route"); got != "photos" {
			t.Errorf("route = %q, want photos", got)
		}
		w.Write([]byte(`{"ok":true,"photos":["https://pics.example/a.jpg","https://pics.example/b.jpg"]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", 0)
	photos, err := c.FetchPhotos(context.Background())
	if err != nil {
		t.Fatalf("FetchPhotos returned error: %v", err)
	}
	if len(photos) != 2 {
		t.Errorf("got %d photos, want 2", len(photos))
	}
}

func TestEndpointWithExistingQuery(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("deployment") != "v7" || q.Get("route") != "range" {
			t.Errorf("query merge failed: %v", q)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"?deployment=v7", "tok", 0)
	start, end := rangeBounds()
	if _, err := c.FetchRange(context.Background(), start, end); err != nil {
		t.Fatalf("FetchRange returned error: %v", err)
	}
}

func TestRedactToken(t *testing.T) {
	t.Parallel()

	got := redactToken("https://script.example/exec?route=range&token=super-secret")
	if u, err := url.Parse(got); err != nil || u.Query().Get("token") == "super-secret" {
		t.Errorf("token not redacted: %q", got)
	}
}
