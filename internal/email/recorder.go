package email

import (
	"context"
	"sync"
)

// SentMail records one delivery captured by the Recorder.
type SentMail struct {
	To         string
	TemplateID string
	Data       map[string]string
}

// Recorder is an in-memory Sender for tests.
type Recorder struct {
	mu   sync.Mutex
	sent []SentMail

	// FailWith, when set, is returned by every Send call.
	FailWith error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Send records the delivery.
func (r *Recorder) Send(ctx context.Context, to, templateID string, data map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWith != nil {
		return r.FailWith
	}

	copied := make(map[string]string, len(data))
	for k, v := range data {
		copied[k] = v
	}
	r.sent = append(r.sent, SentMail{To: to, TemplateID: templateID, Data: copied})
	return nil
}

// Sent returns a copy of everything recorded so far.
func (r *Recorder) Sent() []SentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentMail{}, r.sent...)
}
