package intercept

import (
	"time"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/capture/extract"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/pkg/logger"
)

// Option applies a configuration option to the Transport.
type Option func(*Transport)

// WithEditor attaches the page's code-editor widget as the code fallback.
func WithEditor(editor extract.EditorBuffer) Option {
	return func(t *Transport) {
		t.editor = editor
	}
}

// WithClock injects a time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(t *Transport) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets a custom logger for the transport.
func WithLogger(log logger.Logger) Option {
	return func(t *Transport) {
		if log != nil {
			t.log = log
		}
	}
}
