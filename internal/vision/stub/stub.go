// Package stub is an in-memory TextExtractor for development and
// tests: it returns canned text without any network call.
package stub

import (
	"context"
	"sync"

	ports "tippool/internal/vision"
)

type Extractor struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

var _ ports.TextExtractor = (*Extractor)(nil)

// New returns an extractor that always yields text.
func New(text string) *Extractor {
	return &Extractor{text: text}
}

// NewFailing returns an extractor that always fails with err.
func NewFailing(err error) *Extractor {
	return &Extractor{err: err}
}

func (e *Extractor) ExtractText(ctx context.Context, image []byte) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

// Calls reports how many times ExtractText ran.
func (e *Extractor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
