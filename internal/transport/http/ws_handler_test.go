package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"quizzie-service/internal/domain"

	"github.com/gorilla/websocket"
)

func TestLiveAnalysisStream(t *testing.T) {
	env := newTestEnv(t)
	client := newClient(t)
	api := env.server.URL + "/api/v1"
	ownerID := signupAndLogin(t, env, client, "alice", "alice@example.com")
	_, body := call(t, client, http.MethodPost, api+"/quiz/newquiz", geoPollBody())
	var quiz struct {
		ID string `json:"_id"`
	}
	_ = json.Unmarshal(body.Data, &quiz)

	token, err := env.tokens.Issue(userWithID(ownerID))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	u := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/v1/quiz/" + quiz.ID + "/live"
	header := http.Header{"Authorization": {"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(u, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the current snapshot first.
	first := readAnalysis(t, conn)
	if first.Questions[0].Options[1].TotalAttempts != 0 {
		t.Fatalf("unexpected initial snapshot %+v", first)
	}

	status, _ := call(t, newClient(t), http.MethodPost, api+"/quiz/"+quiz.ID+"/poll", map[string]any{"answers": []any{1}})
	if status != http.StatusOK {
		t.Fatalf("poll: %d", status)
	}
	next := readAnalysis(t, conn)
	if next.Questions[0].Options[1].TotalAttempts != 1 {
		t.Fatalf("unexpected snapshot %+v", next)
	}
}

func TestLiveAnalysisRejectsForeignOwner(t *testing.T) {
	env := newTestEnv(t)
	alice := newClient(t)
	api := env.server.URL + "/api/v1"
	signupAndLogin(t, env, alice, "alice", "alice@example.com")
	_, body := call(t, alice, http.MethodPost, api+"/quiz/newquiz", geoPollBody())
	var quiz struct {
		ID string `json:"_id"`
	}
	_ = json.Unmarshal(body.Data, &quiz)

	bobID := signupAndLogin(t, env, newClient(t), "bob", "bob@example.com")
	token, _ := env.tokens.Issue(userWithID(bobID))
	u := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/v1/quiz/" + quiz.ID + "/live"
	_, resp, err := websocket.DefaultDialer.Dial(u, http.Header{"Authorization": {"Bearer " + token}})
	if err == nil {
		t.Fatalf("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before upgrade, got %+v", resp)
	}
}

func readAnalysis(t *testing.T, conn *websocket.Conn) domain.QuizAnalysis {
	t.Helper()
	var msg outboundMessage[domain.QuizAnalysis]
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "analysis" {
		t.Fatalf("expected analysis, got %s", msg.Type)
	}
	return msg.Payload
}

func userWithID(id string) domain.User {
	return domain.User{ID: id, Name: "test", Email: "test@example.com"}
}
