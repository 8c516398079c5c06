package defra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeDefra answers every mutation with one created document per input
// object and records the mutations it saw.
type fakeDefra struct {
	mu        sync.Mutex
	mutations []string
	fail      bool
}

func (f *fakeDefra) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GQLRequest
		json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		f.mutations = append(f.mutations, req.Query)
		fail := f.fail
		f.mu.Unlock()

		if fail {
			w.Write([]byte(`{"errors":[{"message":"write rejected"}]}`))
			return
		}

		// create_<Collection>(input: [...]) -> one doc per "{" at depth one.
		start := strings.Index(req.Query, "create_")
		end := strings.Index(req.Query[start:], "(")
		key := req.Query[start : start+end]
		n := strings.Count(req.Query, "}, {") + 1
		docs := make([]any, n)
		for i := range docs {
			docs[i] = map[string]any{"_docID": "bae-" + string(rune('a'+i))}
		}
		json.NewEncoder(w).Encode(GQLResponse{Data: map[string]any{key: docs}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeDefra) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.mutations)
}

func TestSink_SendSync(t *testing.T) {
	fake := &fakeDefra{}
	sink := NewSink(SinkConfig{Client: NewClient(fake.server(t).URL), FlushInterval: 10 * time.Millisecond})
	sink.Start(context.Background())
	defer sink.Stop()

	result, err := sink.SendSync(context.Background(), WriteOp{
		Collection: "MarketPrice",
		Document:   map[string]any{"market": "Owino"},
		Op:         OpCreate,
	})
	if err != nil {
		t.Fatalf("SendSync() error = %v", err)
	}
	if result.DocID != "bae-a" {
		t.Errorf("DocID = %q", result.DocID)
	}
}

func TestSink_SendSync_Error(t *testing.T) {
	fake := &fakeDefra{fail: true}
	sink := NewSink(SinkConfig{Client: NewClient(fake.server(t).URL), FlushInterval: 10 * time.Millisecond})
	sink.Start(context.Background())
	defer sink.Stop()

	_, err := sink.SendSync(context.Background(), WriteOp{Collection: "X", Document: map[string]any{"a": 1}, Op: OpCreate})
	if err == nil || !strings.Contains(err.Error(), "write rejected") {
		t.Errorf("SendSync() error = %v", err)
	}
	if sink.Stats().Failed != 1 {
		t.Errorf("Stats() = %+v", sink.Stats())
	}
}

func TestSink_BatchesFireAndForgetCreates(t *testing.T) {
	fake := &fakeDefra{}
	sink := NewSink(SinkConfig{
		Client:        NewClient(fake.server(t).URL),
		BatchSize:     5,
		FlushInterval: time.Hour,
	})
	sink.Start(context.Background())

	for i := 0; i < 5; i++ {
		sink.Send(WriteOp{Collection: "LLMCall", Document: map[string]any{"n": i}, Op: OpCreate})
	}
	sink.Stop()

	if fake.count() != 1 {
		t.Errorf("expected one batched mutation, got %d", fake.count())
	}
	if stats := sink.Stats(); stats.Written != 5 || stats.Queued != 5 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestSink_FlushInterval(t *testing.T) {
	fake := &fakeDefra{}
	sink := NewSink(SinkConfig{
		Client:        NewClient(fake.server(t).URL),
		BatchSize:     100,
		FlushInterval: 20 * time.Millisecond,
	})
	sink.Start(context.Background())
	defer sink.Stop()

	sink.Send(WriteOp{Collection: "LLMCall", Document: map[string]any{"n": 1}, Op: OpCreate})

	deadline := time.Now().Add(2 * time.Second)
	for fake.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if fake.count() != 1 {
		t.Errorf("expected timed flush, got %d mutations", fake.count())
	}
}

func TestSink_ManualFlush(t *testing.T) {
	fake := &fakeDefra{}
	sink := NewSink(SinkConfig{Client: NewClient(fake.server(t).URL), FlushInterval: time.Hour})
	sink.Start(context.Background())
	defer sink.Stop()

	sink.Send(WriteOp{Collection: "LLMCall", Document: map[string]any{"n": 1}, Op: OpCreate})
	// Let the batcher pick the op off the queue before asking for a flush.
	deadline := time.Now().Add(2 * time.Second)
	for fake.count() == 0 && time.Now().Before(deadline) {
		sink.Flush()
		time.Sleep(5 * time.Millisecond)
	}
	if fake.count() != 1 {
		t.Errorf("Flush() did not write, got %d mutations", fake.count())
	}
}

func TestSink_DropsAfterStop(t *testing.T) {
	fake := &fakeDefra{}
	sink := NewSink(SinkConfig{Client: NewClient(fake.server(t).URL)})
	sink.Start(context.Background())
	sink.Stop()
	sink.Stop() // idempotent

	sink.Send(WriteOp{Collection: "X", Document: map[string]any{"a": 1}, Op: OpCreate})
	if _, err := sink.SendSync(context.Background(), WriteOp{Collection: "X", Op: OpCreate}); err != ErrSinkClosed {
		t.Errorf("SendSync() after Stop error = %v, want ErrSinkClosed", err)
	}
	if sink.Stats().Dropped != 1 {
		t.Errorf("Stats() = %+v", sink.Stats())
	}
	if fake.count() != 0 {
		t.Errorf("no writes expected, got %d", fake.count())
	}
}

func TestSink_ConcurrentSends(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		var req GQLRequest
		json.NewDecoder(r.Body).Decode(&req)
		n := strings.Count(req.Query, "}, {") + 1
		docs := make([]any, n)
		for i := range docs {
			docs[i] = map[string]any{"_docID": "bae-x"}
		}
		json.NewEncoder(w).Encode(GQLResponse{Data: map[string]any{"create_LLMCall": docs}})
	}))
	defer srv.Close()

	sink := NewSink(SinkConfig{Client: NewClient(srv.URL), BatchSize: 10, FlushInterval: time.Hour})
	sink.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sink.Send(WriteOp{Collection: "LLMCall", Document: map[string]any{"n": n}, Op: OpCreate})
		}(i)
	}
	wg.Wait()
	sink.Stop()

	if got := sink.Stats().Written; got != 50 {
		t.Errorf("Written = %d, want 50", got)
	}
	if requests.Load() == 0 || requests.Load() > 5 {
		t.Errorf("requests = %d, want between 1 and 5", requests.Load())
	}
}

func TestSink_UpdateAndDelete(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GQLRequest
		json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		seen = append(seen, req.Query)
		mu.Unlock()
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	sink := NewSink(SinkConfig{Client: NewClient(srv.URL), FlushInterval: 10 * time.Millisecond})
	sink.Start(context.Background())
	defer sink.Stop()

	ctx := context.Background()
	if _, err := sink.SendSync(ctx, WriteOp{Collection: "MarketPrice", DocID: "bae-1", Document: map[string]any{"item_count": 3}, Op: OpUpdate}); err != nil {
		t.Fatalf("update error = %v", err)
	}
	if _, err := sink.SendSync(ctx, WriteOp{Collection: "MarketPrice", DocID: "bae-1", Op: OpDelete}); err != nil {
		t.Fatalf("delete error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || !strings.Contains(seen[0], "update_MarketPrice") || !strings.Contains(seen[1], "delete_MarketPrice") {
		t.Errorf("mutations = %v", seen)
	}
}
