package http

import (
	"bytes"
	"encoding/json"
	netHTTP "net/http"
	"testing"
	"time"
)

func (e *testEnv) apiPost(t *testing.T, path string, body string) (*netHTTP.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	resp, err := e.client.Post(e.server.URL+path, "application/json", reader)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return resp, payload
}

func (e *testEnv) apiGet(t *testing.T, path string) (*netHTTP.Response, map[string]any) {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return resp, payload
}

func TestAPIRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := netHTTP.Get(env.server.URL + "/api/v1/session/status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != netHTTP.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestSessionStatusWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t)

	resp, payload := env.apiGet(t, "/api/v1/session/status")
	if resp.StatusCode != netHTTP.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if payload["success"] != false {
		t.Fatalf("expected success=false, got %v", payload["success"])
	}
}

func TestSessionCreateAndStatus(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t)

	resp, payload := env.apiPost(t, "/api/v1/session/create", `{"time_limit_minutes": 45}`)
	if resp.StatusCode != netHTTP.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	session, ok := payload["session"].(map[string]any)
	if !ok {
		t.Fatalf("missing session in %v", payload)
	}
	if session["time_limit_minutes"] != float64(45) {
		t.Fatalf("expected 45 minute limit, got %v", session["time_limit_minutes"])
	}
	if session["time_remaining_seconds"] != float64(45*60) {
		t.Fatalf("expected full time remaining, got %v", session["time_remaining_seconds"])
	}

	resp, payload = env.apiGet(t, "/api/v1/session/status")
	if resp.StatusCode != netHTTP.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if payload["is_valid"] != true {
		t.Fatalf("expected valid session, got %v", payload)
	}
}

func TestSessionCreateInvalidLimit(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t)

	resp, _ := env.apiPost(t, "/api/v1/session/create", `{"time_limit_minutes": 181}`)
	if resp.StatusCode != netHTTP.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSessionCreateSupersedesActive(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t)

	_, first := env.apiPost(t, "/api/v1/session/create", `{"time_limit_minutes": 10}`)
	_, second := env.apiPost(t, "/api/v1/session/create", `{"time_limit_minutes": 20}`)

	firstID := first["session"].(map[string]any)["id"]
	secondID := second["session"].(map[string]any)["id"]
	if firstID == secondID {
		t.Fatalf("expected a fresh session id")
	}

	_, status := env.apiGet(t, "/api/v1/session/status")
	if got := status["session"].(map[string]any)["id"]; got != secondID {
		t.Fatalf("expected latest session %v, got %v", secondID, got)
	}
}

func TestHeartbeatTracksServerClock(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t)

	env.apiPost(t, "/api/v1/session/create", `{"time_limit_minutes": 10}`)
	env.clock.Advance(4 * time.Minute)

	resp, payload := env.apiPost(t, "/api/v1/session/heartbeat", "")
	if resp.StatusCode != netHTTP.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if payload["expired"] != false {
		t.Fatalf("session should still be live: %v", payload)
	}
	if payload["time_remaining"] != float64(6*60) {
		t.Fatalf("expected 360s remaining, got %v", payload["time_remaining"])
	}
}

func TestHeartbeatReportsExpiry(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t)

	env.apiPost(t, "/api/v1/session/create", `{"time_limit_minutes": 10}`)
	env.clock.Advance(11 * time.Minute)

	_, payload := env.apiPost(t, "/api/v1/session/heartbeat", "")
	if payload["expired"] != true {
		t.Fatalf("expected expired heartbeat, got %v", payload)
	}

	// Expiry detection finalizes the session, so there is nothing left
	// for the next status call to find.
	resp, _ := env.apiGet(t, "/api/v1/session/status")
	if resp.StatusCode != netHTTP.StatusNotFound {
		t.Fatalf("expected 404 after expiry, got %d", resp.StatusCode)
	}
}

func TestSessionAbandonAPI(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t)

	env.apiPost(t, "/api/v1/session/create", "")
	resp, payload := env.apiPost(t, "/api/v1/session/abandon", "")
	if resp.StatusCode != netHTTP.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if payload["success"] != true {
		t.Fatalf("expected success, got %v", payload)
	}

	resp, _ = env.apiPost(t, "/api/v1/session/abandon", "")
	if resp.StatusCode != netHTTP.StatusNotFound {
		t.Fatalf("expected 404 on second abandon, got %d", resp.StatusCode)
	}
}

func TestSessionExtendAPI(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t)

	env.apiPost(t, "/api/v1/session/create", `{"time_limit_minutes": 10}`)

	resp, payload := env.apiPost(t, "/api/v1/session/extend", `{"additional_minutes": 15}`)
	if resp.StatusCode != netHTTP.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	session := payload["session"].(map[string]any)
	if session["time_limit_minutes"] != float64(25) {
		t.Fatalf("expected limit 25, got %v", session["time_limit_minutes"])
	}

	resp, _ = env.apiPost(t, "/api/v1/session/extend", `{"additional_minutes": 31}`)
	if resp.StatusCode != netHTTP.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range extension, got %d", resp.StatusCode)
	}
}

func TestQuestionsAPIHidesAnswers(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t)

	resp, err := env.client.Get(env.server.URL + "/api/v1/questions")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	defer resp.Body.Close()

	var views []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(views))
	}
	for _, v := range views {
		if _, leaked := v["answer"]; leaked {
			t.Fatalf("answer leaked in %v", v)
		}
		if v["question"] == "" {
			t.Fatalf("missing prompt in %v", v)
		}
	}
}
