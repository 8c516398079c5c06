package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestClient(t *testing.T) {
	var gotBody, gotSig, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(`{"status":"ok"}`))
		case "/echo":
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			gotSig = r.Header.Get("X-Postmark-Signature")
			gotType = r.Header.Get("Content-Type")
			w.Write([]byte(`{"status":"received"}`))
		case "/bad":
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"error":"could not extract market name from email"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("boom"))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	var resp struct{ Status string }
	if err := c.Get(ctx, "/ok", &resp); err != nil || resp.Status != "ok" {
		t.Fatalf("Get() = %+v, %v", resp, err)
	}

	raw := []byte(`{"From":"a@b.c"}`)
	if err := c.PostRaw(ctx, "/echo", raw, map[string]string{"X-Postmark-Signature": "abc"}, &resp); err != nil {
		t.Fatalf("PostRaw() error = %v", err)
	}
	if gotBody != string(raw) || gotSig != "abc" || gotType != "application/json" {
		t.Errorf("server saw body=%q sig=%q type=%q", gotBody, gotSig, gotType)
	}

	if err := c.Post(ctx, "/echo", map[string]string{"body": "x"}, nil); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if gotBody != `{"body":"x"}` {
		t.Errorf("Post body = %q", gotBody)
	}

	err := c.Get(ctx, "/bad", nil)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnprocessableEntity || !strings.Contains(se.Message, "market name") {
		t.Errorf("Get(/bad) error = %v", err)
	}

	if _, err := c.GetRaw(ctx, "/other"); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("GetRaw(/other) error = %v", err)
	}
}

func TestOutputTo(t *testing.T) {
	data := map[string]any{"market": "Owino", "itemCount": 2}

	var buf bytes.Buffer
	if err := OutputTo(&buf, OutputFormatJSON, data); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"market": "Owino"`) {
		t.Errorf("json output = %s", buf.String())
	}

	buf.Reset()
	if err := OutputTo(&buf, OutputFormatYAML, data); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "market: Owino") {
		t.Errorf("yaml output = %s", buf.String())
	}

	if err := OutputTo(&buf, "xml", data); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestSetOutputFormat(t *testing.T) {
	t.Cleanup(func() { format = OutputFormatYAML })

	if err := SetOutputFormat("json"); err != nil || format != OutputFormatJSON {
		t.Errorf("SetOutputFormat(json) = %v, format = %s", err, format)
	}
	if err := SetOutputFormat("table"); err == nil {
		t.Error("SetOutputFormat(table) should fail")
	}
	if format != OutputFormatJSON {
		t.Errorf("rejected format changed the selection to %s", format)
	}
}

type fakeEndpoint struct {
	method, path string
	init         bool
}

func (e fakeEndpoint) Route() (string, string, http.HandlerFunc) {
	return e.method, e.path, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }
}
func (e fakeEndpoint) RequiresInit() bool { return e.init }
func (e fakeEndpoint) Command(func() string) *cobra.Command {
	return &cobra.Command{Use: strings.Trim(e.path, "/")}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeEndpoint{"GET", "/health", false})
	r.Register(fakeEndpoint{"GET", "/markets", true})

	mux := http.NewServeMux()
	r.RegisterRoutes(mux, func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})

	for path, want := range map[string]int{"/health": http.StatusNoContent, "/markets": http.StatusServiceUnavailable} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Errorf("%s status = %d, want %d", path, rec.Code, want)
		}
	}

	if len(r.Endpoints()) != 2 {
		t.Errorf("expected 2 endpoints, got %d", len(r.Endpoints()))
	}
}
