package usecase

import (
	"sync"
	"time"

	"whisperkey/internal/domain"
	"whisperkey/internal/ports"
)

// activeSession is the single in-flight press-to-release cycle. At
// most one exists process-wide, owned by the Arbiter under its lock.
type activeSession struct {
	id       string
	action   domain.ActionConfig
	start    time.Time
	released bool

	// Streaming mode only. stream stays nil until the background dial
	// attaches it; the forwarder buffers PCM in the meantime.
	forward    *chunkForwarder
	stream     ports.StreamingSession
	reconciler *streamReconciler
	eventsDone chan struct{}
}

func (s *activeSession) streaming() bool {
	return s.stream != nil
}

func (s *activeSession) duration() float64 {
	return time.Since(s.start).Seconds()
}

// maxPendingChunks bounds PCM buffered while the streaming dial is in
// flight. 512 chunks of 100ms audio is far longer than any dial; past
// that the oldest chunks are dropped, and the release path still has
// the full capture buffer for batch fallback.
const maxPendingChunks = 512

// chunkForwarder hands live PCM to a streaming session that may not be
// connected yet. Chunks arriving before Attach are buffered and
// flushed in order once the session is up; Stop discards them when the
// dial failed.
type chunkForwarder struct {
	mu      sync.Mutex
	stream  ports.StreamingSession
	pending [][]byte
	stopped bool
}

func newChunkForwarder() *chunkForwarder {
	return &chunkForwarder{}
}

func (f *chunkForwarder) Forward(chunk []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	if f.stream != nil {
		_ = f.stream.SendAudio(chunk)
		return
	}
	if len(f.pending) >= maxPendingChunks {
		f.pending = f.pending[1:]
	}
	f.pending = append(f.pending, append([]byte(nil), chunk...))
}

func (f *chunkForwarder) Attach(stream ports.StreamingSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	for _, chunk := range f.pending {
		_ = stream.SendAudio(chunk)
	}
	f.pending = nil
	f.stream = stream
}

func (f *chunkForwarder) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	f.pending = nil
	f.stream = nil
}
