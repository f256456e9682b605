// Package noopcodec provides a pass-through codec for uncompressed files.
package noopcodec

import (
	"io"

	"github.com/discochess/cellar/internal/codec"
)

var _ codec.Codec = Codec{}

// Codec passes data through unchanged.
type Codec struct{}

// New returns a pass-through codec.
func New() Codec {
	return Codec{}
}

// Reader returns r as a ReadCloser. Close does not close r.
func (Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

// Writer returns w as a WriteCloser. Close does not close w.
func (Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

// Extension returns "".
func (Codec) Extension() string {
	return ""
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
