package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/takascemberi/takas/internal/model"
	"github.com/takascemberi/takas/internal/store"
	"github.com/takascemberi/takas/internal/translate"
)

// newMyMemory fakes the MyMemory endpoint with a fixed dictionary. Unknown
// texts get a non-200 response status.
func newMyMemory(t *testing.T, dict map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		key := q.Get("langpair") + " " + q.Get("q")
		if out, ok := dict[key]; ok {
			fmt.Fprintf(w, `{"responseStatus":200,"responseData":{"translatedText":%q}}`, out)
			return
		}
		io.WriteString(w, `{"responseStatus":403,"responseData":{"translatedText":""},"responseDetails":"INVALID LANGUAGE PAIR"}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestTranslateItemEndpoint(t *testing.T) {
	api, calls := newMyMemory(t, map[string]string{
		"tr|en Bisiklet":       "Bicycle",
		"tr|ar Bisiklet":       "دراجة",
		"tr|en Az kullanılmış": "Lightly used",
		"tr|ar Az kullanılmış": "مستعمل قليلا",
	})
	client := translate.NewClient(translate.ClientOptions{Endpoint: api.URL})
	s := newTestServer(t, client)
	item, _ := s.Items.CreateItem(context.Background(), "member-7", "", "Bisiklet", "Az kullanılmış")

	resp := s.do(t, http.MethodPost, "/api/translate-item/"+item.ID, "", nil)
	body := decodeBody[itemTranslatedResponse](t, resp)
	if resp.StatusCode != http.StatusOK || body.Message != "item translated" {
		t.Fatalf("unexpected response: %d %+v", resp.StatusCode, body)
	}
	want := model.Translations{
		TitleEn: "Bicycle", TitleAr: "دراجة",
		DescriptionEn: "Lightly used", DescriptionAr: "مستعمل قليلا",
	}
	if body.Translations != want {
		t.Errorf("expected %+v, got %+v", want, body.Translations)
	}
	if calls.Load() != 4 {
		t.Errorf("expected 4 API calls, got %d", calls.Load())
	}

	stored, _ := s.Items.GetItem(context.Background(), item.ID)
	if stored.Translations() != want {
		t.Errorf("stored translations differ: %+v", stored.Translations())
	}

	// Second call is a no-op.
	resp = s.do(t, http.MethodPost, "/api/translate-item/"+item.ID, "", nil)
	again := decodeBody[map[string]any](t, resp)
	if again["message"] != "already translated" {
		t.Errorf("expected already translated, got %v", again)
	}
	if _, ok := again["translations"]; ok {
		t.Error("expected no translations in already-translated response")
	}
	if calls.Load() != 4 {
		t.Errorf("expected no further API calls, got %d", calls.Load())
	}
}

func TestTranslateItemEndpoint_FallbackKeepsSource(t *testing.T) {
	api, _ := newMyMemory(t, map[string]string{"tr|en Bisiklet": "Bicycle"})
	s := newTestServer(t, translate.NewClient(translate.ClientOptions{Endpoint: api.URL}))
	item, _ := s.Items.CreateItem(context.Background(), "member-7", "", "Bisiklet", "Az kullanılmış")

	resp := s.do(t, http.MethodPost, "/api/translate-item/"+item.ID, "", nil)
	body := decodeBody[itemTranslatedResponse](t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body.Translations.TitleEn != "Bicycle" || body.Translations.TitleAr != "Bisiklet" {
		t.Errorf("expected Arabic title to fall back to source, got %+v", body.Translations)
	}
	if body.Translations.DescriptionAr != "Az kullanılmış" {
		t.Errorf("expected description fallback, got %q", body.Translations.DescriptionAr)
	}
}

func TestTranslateItemEndpoint_NotFound(t *testing.T) {
	s := newTestServer(t, echoTranslator{})

	resp := s.do(t, http.MethodPost, "/api/translate-item/does-not-exist", "", nil)
	body := decodeBody[map[string]string](t, resp)
	if resp.StatusCode != http.StatusNotFound || body["error"] != "item not found" {
		t.Errorf("expected 404 item not found, got %d %v", resp.StatusCode, body)
	}
}

func TestTranslateAllEndpoint(t *testing.T) {
	s := newTestServer(t, echoTranslator{})
	ctx := context.Background()

	for i := range 7 {
		s.Items.CreateItem(ctx, "member", "", fmt.Sprintf("Eşya %d", i), "")
	}
	done, _ := s.Items.CreateItem(ctx, "member", "", "Kitap", "")
	s.Items.SetItemTranslations(ctx, done.ID, model.Translations{TitleEn: "Book", TitleAr: "كتاب"})
	traded, _ := s.Items.CreateItem(ctx, "member", "", "Masa", "")
	s.Items.UpdateItem(ctx, traded.ID, "", "Masa", "", model.ItemStatusTraded)

	resp := s.do(t, http.MethodPost, "/api/translate-all-items", "", nil)
	body := decodeBody[bulkTranslatedResponse](t, resp)
	if resp.StatusCode != http.StatusOK || body.Message != "bulk translation finished" {
		t.Fatalf("unexpected response: %d %+v", resp.StatusCode, body)
	}
	if body.Total != 7 || body.Translated != 7 || body.Failed != 0 {
		t.Errorf("unexpected summary: %+v", body.Summary)
	}

	items, _ := s.Items.ListItems(ctx, model.ItemStatusActive)
	for _, it := range items {
		if it.NeedsTranslation() {
			t.Errorf("item %s still untranslated", it.ID)
		}
	}
	stillTraded, _ := s.Items.GetItem(ctx, traded.ID)
	if stillTraded.TitleEn != nil {
		t.Error("expected traded item to be skipped")
	}

	// Nothing left to do.
	resp = s.do(t, http.MethodPost, "/api/translate-all-items", "", nil)
	body = decodeBody[bulkTranslatedResponse](t, resp)
	if body.Total != 0 || body.Translated != 0 {
		t.Errorf("expected empty second run, got %+v", body.Summary)
	}
}

func TestTranslateAllEndpoint_ListFailure(t *testing.T) {
	s := newTestServer(t, echoTranslator{})
	s.DB.Close()

	resp := s.do(t, http.MethodPost, "/api/translate-all-items", "", nil)
	body := decodeBody[map[string]string](t, resp)
	if resp.StatusCode != http.StatusInternalServerError || body["error"] != "failed to list items" {
		t.Errorf("expected 500 failed to list items, got %d %v", resp.StatusCode, body)
	}
}

// slowTranslator answers after a fixed delay and ignores cancellation.
type slowTranslator struct {
	delay time.Duration
}

func (s slowTranslator) Translate(_ context.Context, text, _, to string) translate.Result {
	time.Sleep(s.delay)
	return translate.Result{Text: "[" + to + "] " + text}
}

// blockingTranslator holds every call until its context ends, then falls back
// the way the HTTP client does on a canceled request.
type blockingTranslator struct {
	once    sync.Once
	started chan struct{}
}

func newBlockingTranslator() *blockingTranslator {
	return &blockingTranslator{started: make(chan struct{})}
}

func (b *blockingTranslator) Translate(ctx context.Context, text, _, _ string) translate.Result {
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	return translate.Result{Text: text, Fallback: true, Reason: ctx.Err().Error()}
}

// failingWrites stores items normally but rejects translation write-back.
type failingWrites struct {
	*store.SQLiteItems
}

func (failingWrites) SetItemTranslations(context.Context, string, model.Translations) error {
	return errors.New("disk full")
}

func pendingCount(t *testing.T, s *testServer) int {
	t.Helper()
	items, err := s.Items.ListItems(context.Background(), model.ItemStatusActive)
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, it := range items {
		if it.NeedsTranslation() {
			n++
		}
	}
	return n
}

func TestTranslateAllEndpoint_ClientDisconnectKeepsRunning(t *testing.T) {
	s := newTestServer(t, slowTranslator{delay: 50 * time.Millisecond})
	for i := range 3 {
		s.Items.CreateItem(context.Background(), "member", "", fmt.Sprintf("Eşya %d", i), "")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.URL+"/api/translate-all-items", nil)
	if resp, err := http.DefaultClient.Do(req); err == nil {
		resp.Body.Close()
		t.Fatal("expected the client request to time out")
	}

	deadline := time.Now().Add(2 * time.Second)
	for pendingCount(t, s) > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("%d items still untranslated after the client left", pendingCount(t, s))
		}
		time.Sleep(10 * time.Millisecond)
	}

	items, _ := s.Items.ListItems(context.Background(), model.ItemStatusActive)
	for _, it := range items {
		if want := "[en] " + it.Title; *it.TitleEn != want {
			t.Errorf("expected %q, got %q", want, *it.TitleEn)
		}
	}
}

func TestTranslateEndpoints_ShutdownStoresNothing(t *testing.T) {
	tests := []struct {
		name string
		path func(id string) string
	}{
		{"single item", func(id string) string { return "/api/translate-item/" + id }},
		{"bulk", func(string) string { return "/api/translate-all-items" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lifetime, shutdown := context.WithCancel(context.Background())
			defer shutdown()
			tr := newBlockingTranslator()
			s := newTestServerWith(t, tr, testServerOptions{lifetime: lifetime})
			item, _ := s.Items.CreateItem(context.Background(), "member-7", "", "Bisiklet", "Az kullanılmış")

			responses := make(chan *http.Response, 1)
			go func() {
				req, _ := http.NewRequest(http.MethodPost, s.URL+tt.path(item.ID), nil)
				resp, err := http.DefaultClient.Do(req)
				if err != nil {
					t.Errorf("request failed: %v", err)
					close(responses)
					return
				}
				responses <- resp
			}()

			select {
			case <-tr.started:
			case <-time.After(2 * time.Second):
				t.Fatal("translation never started")
			}
			shutdown()

			resp, ok := <-responses
			if !ok {
				return
			}
			body := decodeBody[map[string]string](t, resp)
			if resp.StatusCode != http.StatusServiceUnavailable || body["error"] != "server shutting down" {
				t.Errorf("expected 503 server shutting down, got %d %v", resp.StatusCode, body)
			}

			stored, _ := s.Items.GetItem(context.Background(), item.ID)
			if stored.TitleEn != nil || stored.TitleAr != nil {
				t.Errorf("expected no translations stored, got %+v", stored.Translations())
			}
		})
	}
}

func TestTranslateEndpoints_WriteFailure(t *testing.T) {
	wrap := func(items *store.SQLiteItems) store.ItemRepository { return failingWrites{items} }
	s := newTestServerWith(t, echoTranslator{}, testServerOptions{wrapItems: wrap})
	item, _ := s.Items.CreateItem(context.Background(), "member-7", "", "Bisiklet", "")

	resp := s.do(t, http.MethodPost, "/api/translate-item/"+item.ID, "", nil)
	body := decodeBody[map[string]string](t, resp)
	if resp.StatusCode != http.StatusInternalServerError || body["error"] != "failed to translate item" {
		t.Errorf("expected 500 failed to translate item, got %d %v", resp.StatusCode, body)
	}

	resp = s.do(t, http.MethodPost, "/api/translate-all-items", "", nil)
	bulk := decodeBody[bulkTranslatedResponse](t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if bulk.Total != 1 || bulk.Translated != 0 || bulk.Failed != 1 {
		t.Errorf("expected one failed item, got %+v", bulk.Summary)
	}
}
