// Package codec provides stream compression for workload trace files.
package codec

import "io"

// Codec wraps readers and writers with a compression format.
type Codec interface {
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Extension returns the file extension without dot, or "" for none.
	Extension() string
}
