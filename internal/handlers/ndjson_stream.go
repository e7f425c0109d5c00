package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// heartbeatInterval keeps the transport visibly alive during long
// editor waits
const heartbeatInterval = 6 * time.Second

// NDJSONStream delivers one job's progress events as line-delimited
// JSON. A background ticker emits a heartbeat line when no event has
// been written recently; the stream terminates exactly once, with
// either a success or an error payload, and drops anything after that.
type NDJSONStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	logger  arbor.ILogger

	mu         sync.Mutex
	terminated bool
	lastWrite  time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewNDJSONStream prepares the response for streaming and starts the
// heartbeat ticker
func NewNDJSONStream(w http.ResponseWriter, logger arbor.ILogger) *NDJSONStream {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)

	s := &NDJSONStream{
		w:         w,
		flusher:   flusher,
		logger:    logger,
		lastWrite: time.Now(),
		stop:      make(chan struct{}),
	}
	go s.heartbeatLoop()
	return s
}

func (s *NDJSONStream) heartbeatLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			idle := time.Since(s.lastWrite) >= heartbeatInterval
			if idle && !s.terminated {
				s.writeLocked(map[string]interface{}{"heartbeat": time.Now().Unix()})
			}
			s.mu.Unlock()
		}
	}
}

// Step emits a progress line
func (s *NDJSONStream) Step(jobID, step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return
	}
	s.writeLocked(map[string]string{"last_step": step})
}

// Success emits the terminal success payload and seals the stream
func (s *NDJSONStream) Success(jobID, noteURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return
	}
	s.writeLocked(map[string]string{
		"status":   "success",
		"job_id":   jobID,
		"note_url": noteURL,
	})
	s.terminated = true
}

// Error emits the terminal error payload and seals the stream
func (s *NDJSONStream) Error(jobID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return
	}
	s.writeLocked(map[string]string{
		"job_id": jobID,
		"error":  err.Error(),
	})
	s.terminated = true
}

// Close stops the heartbeat ticker. Idempotent.
func (s *NDJSONStream) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Terminated reports whether a terminal payload has been written
func (s *NDJSONStream) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

func (s *NDJSONStream) writeLocked(payload interface{}) {
	line, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to encode stream payload")
		return
	}
	if _, err := s.w.Write(append(line, '\n')); err != nil {
		s.logger.Debug().Err(err).Msg("Stream write failed, caller likely disconnected")
		return
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	s.lastWrite = time.Now()
}
