package defra

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{"healthy", http.StatusOK, false},
		{"unhealthy_500", http.StatusInternalServerError, true},
		{"unhealthy_503", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health-check" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			err := NewClient(server.URL).HealthCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnhealthy) {
				t.Errorf("error should wrap ErrUnhealthy: %v", err)
			}
		})
	}
}

func TestClient_Query(t *testing.T) {
	t.Run("passes variables and returns docs", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v0/graphql" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			var req GQLRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Variables["v0"] != "Owino" {
				t.Errorf("variables = %v", req.Variables)
			}
			w.Write([]byte(`{"data":{"MarketPrice":[{"_docID":"bae-1","market":"Owino"}]}}`))
		}))
		defer server.Close()

		resp, err := NewClient(server.URL).Query(context.Background(), "query($v0: String) { MarketPrice { _docID } }", map[string]any{"v0": "Owino"})
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		docs, err := resp.Docs("MarketPrice")
		if err != nil {
			t.Fatalf("Docs() error = %v", err)
		}
		if len(docs) != 1 || Doc(docs[0]).ID() != "bae-1" {
			t.Errorf("docs = %v", docs)
		}
	})

	t.Run("graphql errors become Go errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"errors":[{"message":"unknown collection"}]}`))
		}))
		defer server.Close()

		_, err := NewClient(server.URL).Query(context.Background(), "{ Nope { _docID } }", nil)
		if err == nil || !strings.Contains(err.Error(), "unknown collection") {
			t.Errorf("Query() error = %v", err)
		}
	})

	t.Run("server errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer server.Close()

		if _, err := NewClient(server.URL).Execute(context.Background(), "{}", nil); err == nil {
			t.Error("expected error for 502")
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := NewClient(server.URL).Execute(ctx, "{}", nil); err == nil {
			t.Error("expected error from cancelled context")
		}
	})
}

func TestClient_AddSchema(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		fail    bool
	}{
		{name: "created", status: http.StatusOK},
		{name: "already exists", status: http.StatusBadRequest, body: `{"error":"collection already exists"}`, wantErr: ErrSchemaExists, fail: true},
		{name: "invalid SDL", status: http.StatusBadRequest, body: `{"error":"syntax error"}`, fail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if ct := r.Header.Get("Content-Type"); ct != "text/plain" {
					t.Errorf("Content-Type = %q", ct)
				}
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			err := NewClient(server.URL).AddSchema(context.Background(), "type X { a: String }")
			if (err != nil) != tt.fail {
				t.Fatalf("AddSchema() error = %v, wantErr %v", err, tt.fail)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("AddSchema() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_CreateMany(t *testing.T) {
	var got GQLRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"data":{"create_PriceItem":[{"_docID":"bae-1"},{"_docID":"bae-2"}]}}`))
	}))
	defer server.Close()

	ids, err := NewClient(server.URL).CreateMany(context.Background(), "PriceItem", []map[string]any{
		{"product": "Tomatoes", "price": 3000.0},
		{"product": "Rice", "price": 4500.0},
	})
	if err != nil {
		t.Fatalf("CreateMany() error = %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("ids = %v", ids)
	}
	want := `mutation { create_PriceItem(input: [{price: 3000, product: "Tomatoes"}, {price: 4500, product: "Rice"}]) { _docID } }`
	if got.Query != want {
		t.Errorf("mutation =\n%s\nwant\n%s", got.Query, want)
	}
}

func TestClient_CreateMany_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"create_X":[{"_docID":"bae-1"}]}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).CreateMany(context.Background(), "X", []map[string]any{{"a": 1}, {"a": 2}})
	if err == nil {
		t.Error("expected mismatch error")
	}
}

func TestClient_RejectsUnsafeDocID(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	if err := c.Delete(context.Background(), "X", `bae") { evil }`); err == nil {
		t.Error("Delete() should reject unsafe IDs")
	}
	if err := c.Update(context.Background(), "X", "", nil); err == nil {
		t.Error("Update() should reject empty IDs")
	}
}

func TestClient_URLNormalization(t *testing.T) {
	if got := NewClient("http://localhost:9181/").URL(); got != "http://localhost:9181" {
		t.Errorf("URL() = %q", got)
	}
}

func TestValueToGraphQL(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", `"hello"`},
		{"control characters", "a\vb", `"a\u000bb"`},
		{"int", 42, "42"},
		{"float without exponent", 4500.0, "4500"},
		{"fraction", 0.25, "0.25"},
		{"bool", true, "true"},
		{"nil", nil, "null"},
		{"time", time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("EAT", 3*3600)), `"2026-03-01T09:00:00Z"`},
		{"nested", map[string]any{"b": 1, "a": "x"}, `{a: "x", b: 1}`},
		{"list", []any{"x", 2}, `["x", 2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := valueToGraphQL(tt.in)
			if err != nil {
				t.Fatalf("valueToGraphQL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("valueToGraphQL() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	for _, id := range []string{"bae-0d3c5c4e-8c5f-5d6a-9e4b-1a2b3c4d5e6f", "abc_123"} {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q) = %v", id, err)
		}
	}
	for _, id := range []string{"", "has space", `quote"`, strings.Repeat("a", 501)} {
		if err := ValidateID(id); err == nil {
			t.Errorf("ValidateID(%q) should fail", id)
		}
	}
}
