// Package output serializes fetch results to an io.Writer. Compact JSON
// is the default so records stay cheap to pipe into other tools.
package output

import (
	"encoding/json"
	"io"
	"sync"
)

// Writer emits one JSON value per line. Safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	pretty bool
}

// NewWriter creates a writer. pretty switches to indented output for
// humans; the default compact form is for pipelines.
func NewWriter(w io.Writer, pretty bool) *Writer {
	return &Writer{w: w, pretty: pretty}
}

// Write marshals v and appends a newline.
func (o *Writer) Write(v any) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var data []byte
	var err error
	if o.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	if _, err = o.w.Write(data); err != nil {
		return err
	}
	_, err = o.w.Write([]byte("\n"))
	return err
}
