package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"famtask/internal/ledger"
	"famtask/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l, err := ledger.New(store.NewMemoryStore(), logger)
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	ts := httptest.NewServer(New(l, logger).Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]string
	resp := getJSON(t, ts.URL+"/health", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestTaskCatalogEndpoints(t *testing.T) {
	ts := newTestServer(t)

	var tasks []map[string]any
	resp := getJSON(t, ts.URL+"/api/tasks", &tasks)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	if len(tasks) != 10 {
		t.Errorf("len(tasks) = %d, want 10", len(tasks))
	}

	var task map[string]any
	resp = getJSON(t, ts.URL+"/api/tasks/trash", &task)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	if task["points"] != float64(5) {
		t.Errorf("points = %v, want 5", task["points"])
	}

	// Unknown IDs come back as the sentinel, not an error.
	resp = getJSON(t, ts.URL+"/api/tasks/paint_the_fence", &task)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unknown task status = %d, want 200", resp.StatusCode)
	}
	if task["name"] != "Unknown task" {
		t.Errorf("name = %v, want Unknown task", task["name"])
	}
}

func TestAssignmentLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/families/1/members", map[string]any{
		"member_id": 7, "display_name": "Alice",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create member status = %d, want 201", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/families/1/assignments", map[string]any{
		"task_id": "trash", "assigned_to": 7, "assigned_by": 7,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("assign status = %d, want 201", resp.StatusCode)
	}

	// Duplicate assignment conflicts.
	resp = postJSON(t, ts.URL+"/api/families/1/assignments", map[string]any{
		"task_id": "trash", "assigned_to": 7, "assigned_by": 7,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate assign status = %d, want 409", resp.StatusCode)
	}

	// Unknown task is a 404.
	resp = postJSON(t, ts.URL+"/api/families/1/assignments", map[string]any{
		"task_id": "paint_the_fence", "assigned_to": 7, "assigned_by": 7,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown task assign status = %d, want 404", resp.StatusCode)
	}

	var assignments []map[string]any
	getJSON(t, ts.URL+"/api/families/1/members/7/assignments", &assignments)
	if len(assignments) != 1 {
		t.Fatalf("len(assignments) = %d, want 1", len(assignments))
	}

	var outcome map[string]any
	resp = postJSON(t, ts.URL+"/api/families/1/completions", map[string]any{
		"task_id": "trash", "member_id": 7,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete status = %d, want 200", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if outcome["points_awarded"] != float64(5) {
		t.Errorf("points_awarded = %v, want 5", outcome["points_awarded"])
	}

	// Completing again conflicts: the assignment is gone.
	resp = postJSON(t, ts.URL+"/api/families/1/completions", map[string]any{
		"task_id": "trash", "member_id": 7,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second complete status = %d, want 409", resp.StatusCode)
	}
}

func TestStatsEndpoints(t *testing.T) {
	ts := newTestServer(t)

	postJSON(t, ts.URL+"/api/families/1/members", map[string]any{
		"member_id": 7, "display_name": "Alice",
	}).Body.Close()

	// No completions yet.
	resp := getJSON(t, ts.URL+"/api/members/7/stats", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("empty stats status = %d, want 404", resp.StatusCode)
	}

	postJSON(t, ts.URL+"/api/families/1/assignments", map[string]any{
		"task_id": "yard_work", "assigned_to": 7, "assigned_by": 7,
	}).Body.Close()
	postJSON(t, ts.URL+"/api/families/1/completions", map[string]any{
		"task_id": "yard_work", "member_id": 7,
	}).Body.Close()

	var stats map[string]any
	resp = getJSON(t, ts.URL+"/api/members/7/stats", &stats)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d, want 200", resp.StatusCode)
	}
	if stats["total_points"] != float64(15) {
		t.Errorf("total_points = %v, want 15", stats["total_points"])
	}

	var board []map[string]any
	resp = getJSON(t, ts.URL+"/api/families/1/leaderboard", &board)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaderboard status = %d, want 200", resp.StatusCode)
	}
	if len(board) != 1 || board[0]["member_id"] != float64(7) {
		t.Errorf("board = %v, want single entry for member 7", board)
	}

	var months []map[string]any
	resp = getJSON(t, ts.URL+"/api/members/7/monthly-stats?year=2020", &months)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("monthly status = %d, want 200", resp.StatusCode)
	}
	if len(months) != 12 {
		t.Errorf("len(months) = %d, want 12", len(months))
	}

	resp = getJSON(t, ts.URL+"/api/members/7/monthly-stats?year=banana", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad year status = %d, want 400", resp.StatusCode)
	}
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)
	resp := getJSON(t, ts.URL+"/health", nil)
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header on responses")
	}
}

func TestBadPathParams(t *testing.T) {
	ts := newTestServer(t)
	resp := getJSON(t, ts.URL+"/api/families/abc/members", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
