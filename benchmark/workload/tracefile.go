package workload

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/discochess/cellar/internal/codec"
	"github.com/discochess/cellar/internal/codec/noopcodec"
	"github.com/discochess/cellar/internal/codec/zstdcodec"
)

// CodecFor returns the codec matching the file extension of path.
// Files ending in .zst are zstd compressed; anything else is plain text.
func CodecFor(path string) codec.Codec {
	if strings.HasSuffix(path, ".zst") {
		return zstdcodec.New()
	}
	return noopcodec.New()
}

// Write writes t to w, one "<kind> <key>" line per op.
func Write(w io.Writer, t Trace) error {
	bw := bufio.NewWriter(w)
	for _, op := range t {
		if _, err := fmt.Fprintf(bw, "%s %s\n", op.Kind, op.Key); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read parses a trace written by Write. Blank lines and lines starting with
// '#' are skipped.
func Read(r io.Reader) (Trace, error) {
	var t Trace
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		kind, key, ok := strings.Cut(text, " ")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("line %d: want \"<op> <key>\", got %q", line, text)
		}

		var op Op
		switch kind {
		case "get":
			op = Op{Kind: Get, Key: key}
		case "set":
			op = Op{Kind: Set, Key: key}
		default:
			return nil, fmt.Errorf("line %d: unknown op %q", line, kind)
		}
		t = append(t, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	return t, nil
}

// WriteFile writes t to path, compressed according to its extension.
func WriteFile(path string, t Trace) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	w, err := CodecFor(path).Writer(f)
	if err != nil {
		return fmt.Errorf("creating encoder: %w", err)
	}
	if err := Write(w, t); err != nil {
		w.Close()
		return fmt.Errorf("writing trace: %w", err)
	}
	return w.Close()
}

// ReadFile reads a trace from path, decompressing according to its extension.
func ReadFile(path string) (Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}
	defer f.Close()

	r, err := CodecFor(path).Reader(f)
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	defer r.Close()

	return Read(r)
}
