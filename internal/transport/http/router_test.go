package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"quizzie-service/internal/app"
	"quizzie-service/internal/auth"
	"quizzie-service/internal/infra/images"
	"quizzie-service/internal/infra/memory"
)

type testEnv struct {
	server  *httptest.Server
	quizzes *app.QuizService
	tokens  *auth.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	users := app.NewUserService(store, auth.NewPasswordHasher(bcrypt.MinCost), tokens)
	quizzes := app.NewQuizService(store, memory.NewQuizCache(store, time.Minute))
	assets := t.TempDir()

	router := NewRouter(RouterConfig{
		Users:     NewUserHandler(users, CookiePolicy{Development: true, MaxAge: tokens.TTL()}),
		Quizzes:   NewQuizHandler(quizzes),
		Images:    NewImageHandler(images.NewFSStore(assets, "/assets")),
		Live:      NewWSHandler(quizzes, ""),
		Sessions:  tokens,
		AssetsDir: assets,
	})
	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		quizzes.Drain()
	})
	return &testEnv{server: server, quizzes: quizzes, tokens: tokens}
}

type response struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func call(t *testing.T, client *http.Client, method, url string, body any) (int, response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s %s: %v", method, url, err)
	}
	return resp.StatusCode, out
}

func signupAndLogin(t *testing.T, env *testEnv, client *http.Client, name, email string) string {
	t.Helper()
	api := env.server.URL + "/api/v1"
	status, body := call(t, client, http.MethodPost, api+"/account/signup", map[string]string{
		"name": name, "email": email, "password": "Passw0rd!",
	})
	if status != http.StatusCreated {
		t.Fatalf("signup: %d %+v", status, body)
	}
	status, body = call(t, client, http.MethodPost, api+"/account/login", map[string]string{
		"email": email, "password": "Passw0rd!",
	})
	if status != http.StatusOK {
		t.Fatalf("login: %d %+v", status, body)
	}
	var user struct {
		ID       string `json:"_id"`
		Password string `json:"password"`
	}
	_ = json.Unmarshal(body.Data, &user)
	if user.ID == "" || user.Password != "" {
		t.Fatalf("unexpected login user %s", body.Data)
	}
	return user.ID
}

func geoPollBody() map[string]any {
	return map[string]any{
		"quizName": "Geo",
		"quizType": "Poll",
		"questions": []map[string]any{{
			"questionName": "Capital?",
			"optionType":   "text",
			"options":      []map[string]any{{"text": "Paris"}, {"text": "Rome"}},
		}},
	}
}

func TestQuizFlow(t *testing.T) {
	env := newTestEnv(t)
	client := newClient(t)
	api := env.server.URL + "/api/v1"
	signupAndLogin(t, env, client, "alice", "alice@example.com")

	status, body := call(t, client, http.MethodPost, api+"/quiz/newquiz", geoPollBody())
	if status != http.StatusCreated || !body.Success {
		t.Fatalf("create: %d %+v", status, body)
	}
	var quiz struct {
		ID        string `json:"_id"`
		Questions []struct {
			Options []struct {
				TotalAttempts int `json:"totalAttempts"`
			} `json:"options"`
		} `json:"questions"`
	}
	_ = json.Unmarshal(body.Data, &quiz)
	if quiz.ID == "" || quiz.Questions[0].Options[0].TotalAttempts != 0 {
		t.Fatalf("unexpected quiz %s", body.Data)
	}

	// public routes need no session
	anon := newClient(t)
	status, body = call(t, anon, http.MethodGet, api+"/quiz/"+quiz.ID, nil)
	if status != http.StatusOK || !strings.Contains(string(body.Data), `"totalQuestions":1`) {
		t.Fatalf("get: %d %+v", status, body)
	}
	status, body = call(t, anon, http.MethodPost, api+"/quiz/"+quiz.ID+"/poll", map[string]any{"answers": []any{0}})
	if status != http.StatusOK || body.Message != "Thank you for participating in the Poll" {
		t.Fatalf("poll: %d %+v", status, body)
	}

	status, body = call(t, client, http.MethodGet, api+"/quiz/"+quiz.ID+"/analysis", nil)
	if status != http.StatusOK {
		t.Fatalf("analysis: %d %+v", status, body)
	}
	var analysis struct {
		Questions []struct {
			Options []struct {
				TotalAttempts int `json:"totalAttempts"`
			} `json:"options"`
		} `json:"questions"`
	}
	_ = json.Unmarshal(body.Data, &analysis)
	if analysis.Questions[0].Options[0].TotalAttempts != 1 || analysis.Questions[0].Options[1].TotalAttempts != 0 {
		t.Fatalf("unexpected analysis %s", body.Data)
	}

	status, _ = call(t, client, http.MethodGet, api+"/quiz/analysis", nil)
	if status != http.StatusOK {
		t.Fatalf("history: %d", status)
	}
	status, body = call(t, client, http.MethodGet, api+"/quiz/dashboard", nil)
	if status != http.StatusNotFound || body.Message != "No quiz found" {
		t.Fatalf("dashboard: %d %+v", status, body)
	}

	status, _ = call(t, client, http.MethodDelete, api+"/quiz/"+quiz.ID+"/delete", nil)
	if status != http.StatusOK {
		t.Fatalf("delete: %d", status)
	}
	status, body = call(t, anon, http.MethodGet, api+"/quiz/"+quiz.ID, nil)
	if status != http.StatusNotFound || body.Success {
		t.Fatalf("get after delete: %d %+v", status, body)
	}
}

func TestCreateQNAValidationMessage(t *testing.T) {
	env := newTestEnv(t)
	client := newClient(t)
	signupAndLogin(t, env, client, "alice", "alice@example.com")

	status, body := call(t, client, http.MethodPost, env.server.URL+"/api/v1/quiz/newquiz", map[string]any{
		"quizName": "Maths",
		"quizType": "Q&A",
		"questions": []map[string]any{{
			"questionName": "2 + 2?",
			"optionType":   "text",
			"timerOption":  5,
			"options":      []map[string]any{{"text": "3", "isCorrect": false}, {"text": "4"}},
		}},
	})
	if status != http.StatusBadRequest || !strings.Contains(body.Message, "isCorrect only true or false") {
		t.Fatalf("expected isCorrect error, got %d %+v", status, body)
	}
	if body.Errors == nil {
		t.Fatalf("expected errors array in envelope")
	}
}

func TestAuthErrors(t *testing.T) {
	env := newTestEnv(t)
	api := env.server.URL + "/api/v1"
	anon := newClient(t)

	status, body := call(t, anon, http.MethodGet, api+"/account/profile", nil)
	if status != http.StatusUnauthorized || body.Message != "Please log in again" {
		t.Fatalf("missing session: %d %+v", status, body)
	}

	req, _ := http.NewRequest(http.MethodGet, api+"/account/profile", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := anon.Do(req)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged token, got %d", resp.StatusCode)
	}

	client := newClient(t)
	signupAndLogin(t, env, client, "alice", "alice@example.com")
	for i := 0; i < 3; i++ {
		status, body = call(t, anon, http.MethodPost, api+"/account/login", map[string]string{
			"email": "alice@example.com", "password": "Wrong#pass1",
		})
		if status != http.StatusUnauthorized || body.Message != "Invalid user credentials" {
			t.Fatalf("wrong password attempt %d: %d %+v", i, status, body)
		}
	}

	status, body = call(t, client, http.MethodPost, api+"/account/signup", map[string]string{
		"name": "bob", "email": "bob@example.com", "password": "alllowercase1!",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("weak password: %d %+v", status, body)
	}

	status, _ = call(t, client, http.MethodPost, api+"/account/logout", nil)
	if status != http.StatusOK {
		t.Fatalf("logout: %d", status)
	}
	status, _ = call(t, client, http.MethodGet, api+"/account/profile", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", status)
	}
}

func TestBearerTokenAndForeignQuiz(t *testing.T) {
	env := newTestEnv(t)
	api := env.server.URL + "/api/v1"
	alice := newClient(t)
	signupAndLogin(t, env, alice, "alice", "alice@example.com")
	_, body := call(t, alice, http.MethodPost, api+"/quiz/newquiz", geoPollBody())
	var quiz struct {
		ID string `json:"_id"`
	}
	_ = json.Unmarshal(body.Data, &quiz)

	bob := newClient(t)
	bobID := signupAndLogin(t, env, bob, "bob", "bob@example.com")
	token, err := env.tokens.Issue(userWithID(bobID))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, api+"/quiz/"+quiz.ID+"/analysis", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("analysis: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected foreign quiz hidden as 404, got %d", resp.StatusCode)
	}

	status, body := call(t, bob, http.MethodPatch, api+"/account/update-profile", map[string]string{"email": "alice@example.com"})
	if status != http.StatusConflict || body.Message != "Email is already in use" {
		t.Fatalf("email conflict: %d %+v", status, body)
	}
}

func TestOversizedBodyRejected(t *testing.T) {
	env := newTestEnv(t)
	status, body := call(t, newClient(t), http.MethodPost, env.server.URL+"/api/v1/account/signup", map[string]string{
		"name": strings.Repeat("a", maxBodySize), "email": "alice@example.com", "password": "Passw0rd!",
	})
	if status != http.StatusBadRequest || body.Message != "Request body too large" {
		t.Fatalf("expected oversized body rejected, got %d %+v", status, body)
	}
}

func TestLoginCookieFollowsTokenTTL(t *testing.T) {
	env := newTestEnv(t)
	signupAndLogin(t, env, newClient(t), "alice", "alice@example.com")

	payload, _ := json.Marshal(map[string]string{"email": "alice@example.com", "password": "Passw0rd!"})
	resp, err := http.Post(env.server.URL+"/api/v1/account/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			session = c
		}
	}
	if session == nil || !session.HttpOnly {
		t.Fatalf("expected httpOnly session cookie, got %v", resp.Cookies())
	}
	if want := int(env.tokens.TTL().Seconds()); session.MaxAge != want {
		t.Fatalf("expected max-age %d, got %d", want, session.MaxAge)
	}
}

func TestImageUpload(t *testing.T) {
	env := newTestEnv(t)
	client := newClient(t)
	signupAndLogin(t, env, client, "alice", "alice@example.com")

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	status, body := uploadImage(t, env, client, "cat.gif", "application/octet-stream", png)
	if status != http.StatusCreated {
		t.Fatalf("upload: %d %+v", status, body)
	}
	var out imageResponse
	_ = json.Unmarshal(body.Data, &out)
	if !strings.HasPrefix(out.ImageURL, "/assets/quiz-images/") || !strings.HasSuffix(out.ImageURL, ".png") {
		t.Fatalf("unexpected url %q", out.ImageURL)
	}

	asset, err := http.Get(env.server.URL + out.ImageURL)
	if err != nil {
		t.Fatalf("fetch asset: %v", err)
	}
	asset.Body.Close()
	if asset.StatusCode != http.StatusOK {
		t.Fatalf("expected asset served, got %d", asset.StatusCode)
	}
	if asset.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("expected nosniff on assets, got %v", asset.Header)
	}
}

func TestImageUploadRejectsScriptableContent(t *testing.T) {
	env := newTestEnv(t)
	client := newClient(t)
	signupAndLogin(t, env, client, "alice", "alice@example.com")

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>fetch('/api/v1/account/profile')</script></svg>`)
	status, body := uploadImage(t, env, client, "cat.svg", "image/svg+xml", svg)
	if status != http.StatusBadRequest || !strings.Contains(body.Message, "Only PNG, JPEG, GIF and WebP") {
		t.Fatalf("expected svg rejected, got %d %+v", status, body)
	}

	html := []byte("<!DOCTYPE html><html><body><script>alert(1)</script></body></html>")
	status, body = uploadImage(t, env, client, "cat.png", "image/png", html)
	if status != http.StatusBadRequest {
		t.Fatalf("expected html disguised as png rejected, got %d %+v", status, body)
	}
}

func uploadImage(t *testing.T, env *testEnv, client *http.Client, filename, contentType string, payload []byte) (int, response) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="image"; filename="` + filename + `"`},
		"Content-Type":        {contentType},
	})
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write(payload)
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/quiz/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	var body response
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}
