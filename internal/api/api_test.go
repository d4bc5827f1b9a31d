package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/takascemberi/takas/internal/db"
	"github.com/takascemberi/takas/internal/model"
	"github.com/takascemberi/takas/internal/store"
	"github.com/takascemberi/takas/internal/translate"
)

const testJWTSecret = "test-secret"

// echoTranslator prefixes the text with the target language.
type echoTranslator struct{}

func (echoTranslator) Translate(_ context.Context, text, _, to string) translate.Result {
	return translate.Result{Text: "[" + to + "] " + text}
}

type testServer struct {
	*httptest.Server
	DB    *sql.DB
	Items *store.SQLiteItems
}

type testServerOptions struct {
	// wrapItems replaces the repository the router and service see.
	wrapItems func(*store.SQLiteItems) store.ItemRepository
	lifetime  context.Context
}

func newTestServer(t *testing.T, tr translate.Translator) *testServer {
	t.Helper()
	return newTestServerWith(t, tr, testServerOptions{})
}

func newTestServerWith(t *testing.T, tr translate.Translator, opts testServerOptions) *testServer {
	t.Helper()
	database := db.NewTestDB(t)
	items := &store.SQLiteItems{DB: database}
	var repo store.ItemRepository = items
	if opts.wrapItems != nil {
		repo = opts.wrapItems(items)
	}
	svc := translate.NewService(repo, tr, translate.ServiceOptions{BatchInterval: -1})

	router := NewRouter(Deps{
		DB:          database,
		Items:       repo,
		Translation: svc,
		JWTSecret:   testJWTSecret,
		CORSOrigins: []string{"https://takascemberi.example"},
		Lifetime:    opts.lifetime,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testServer{Server: server, DB: database, Items: items}
}

func (s *testServer) createUser(t *testing.T, username, password, role string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	user, err := store.CreateUser(context.Background(), s.DB, username, string(hash), role)
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return user
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": password})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}
	var body loginResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Token == "" {
		t.Fatal("empty token from login")
	}
	return body.Token
}

// adminToken creates an admin and returns its token.
func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	s.createUser(t, "admin", "password123", model.RoleAdmin)
	return s.login(t, "admin", "password123")
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t, echoTranslator{})

	resp := s.do(t, http.MethodGet, "/api/items", "", nil)
	resp.Body.Close()
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id")
	}

	req, _ := http.NewRequest(http.MethodGet, s.URL+"/api/items", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("expected echoed request id, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, echoTranslator{})

	req, _ := http.NewRequest(http.MethodOptions, s.URL+"/api/translate-all-items", nil)
	req.Header.Set("Origin", "https://takascemberi.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://takascemberi.example" {
		t.Errorf("expected allowed origin, got %q", got)
	}

	req.Header.Set("Origin", "https://evil.example")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header for unknown origin, got %q", got)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] != "internal error" {
		t.Errorf("unexpected body: %v", body)
	}
}
