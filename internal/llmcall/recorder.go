package llmcall

import (
	"github.com/Cank256/market-mail/internal/defra"
	"github.com/Cank256/market-mail/internal/providers"
)

// Recorder writes calls through a DefraDB sink without blocking the caller.
type Recorder struct {
	sink    *defra.Sink
	observe func(*Call)
}

// NewRecorder creates a recorder. A nil sink records nothing.
func NewRecorder(sink *defra.Sink) *Recorder {
	return &Recorder{sink: sink}
}

// OnRecord registers fn to see every recorded call, e.g. for metrics.
func (r *Recorder) OnRecord(fn func(*Call)) *Recorder {
	r.observe = fn
	return r
}

// Record queues a call built from result.
func (r *Recorder) Record(result *providers.ChatResult, opts RecordOptions) {
	r.RecordCall(FromChatResult(result, opts))
}

// RecordCall queues an already built call.
func (r *Recorder) RecordCall(call *Call) {
	if call == nil {
		return
	}
	if r.observe != nil {
		r.observe(call)
	}
	if r.sink == nil {
		return
	}
	r.sink.Send(defra.WriteOp{
		Op:         defra.OpCreate,
		Collection: Collection,
		Document:   call.ToMap(),
	})
}
