package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/discochess/cellar"
)

// command is one parsed script line.
type command struct {
	name string
	args []string
	line int
}

// arity bounds the argument count of each command.
var arity = map[string][2]int{
	"set":     {2, 3},
	"get":     {1, 1},
	"del":     {1, 1},
	"has":     {1, 1},
	"clear":   {0, 0},
	"evict":   {0, 0},
	"keys":    {0, 0},
	"values":  {0, 0},
	"stats":   {0, 0},
	"advance": {1, 1},
}

// parseScript reads commands one per line. Blank lines and '#' comments
// are skipped.
func parseScript(r io.Reader) ([]command, error) {
	var cmds []command
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text, _, _ := strings.Cut(scanner.Text(), "#")
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		c := command{name: strings.ToLower(fields[0]), args: fields[1:], line: line}
		bounds, ok := arity[c.name]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown command %q", line, fields[0])
		}
		if n := len(c.args); n < bounds[0] || n > bounds[1] {
			return nil, fmt.Errorf("line %d: %s takes %d to %d arguments, got %d", line, c.name, bounds[0], bounds[1], n)
		}
		cmds = append(cmds, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return cmds, nil
}

// manualClock only moves when advanced.
type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

// session runs commands against one cache and prints the results.
type session struct {
	cache *cellar.Cache[string, string]
	clock *manualClock
	out   io.Writer
}

func newSession(out io.Writer, opts ...cellar.Option) (*session, error) {
	clock := &manualClock{now: time.Now()}
	opts = append(opts, cellar.WithClock(clock.Now))
	if !replayQuiet {
		opts = append(opts, cellar.WithListener[string, string](eventPrinter(out)))
	}

	c, err := cellar.New[string, string](opts...)
	if err != nil {
		return nil, err
	}
	return &session{cache: c, clock: clock, out: out}, nil
}

func (s *session) run(c command) error {
	switch c.name {
	case "set":
		if len(c.args) == 3 {
			ttl, err := time.ParseDuration(c.args[2])
			if err != nil {
				return fmt.Errorf("parsing ttl: %w", err)
			}
			_, err = s.cache.SetWithTTL(c.args[0], c.args[1], ttl)
			return err
		}
		_, err := s.cache.Set(c.args[0], c.args[1])
		return err

	case "get":
		v, err := s.cache.Get(c.args[0])
		if errors.Is(err, cellar.ErrNotFound) {
			fmt.Fprintf(s.out, "%s: not found\n", c.args[0])
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s = %s\n", c.args[0], v)

	case "del":
		return s.cache.Delete(c.args[0])

	case "has":
		fmt.Fprintf(s.out, "%s: %t\n", c.args[0], s.cache.Has(c.args[0]))

	case "clear":
		return s.cache.Clear()

	case "evict":
		s.cache.Evict()

	case "keys":
		fmt.Fprintf(s.out, "keys: [%s]\n", strings.Join(s.cache.Keys(), " "))

	case "values":
		fmt.Fprintf(s.out, "values: [%s]\n", strings.Join(s.cache.Values(), " "))

	case "stats":
		st := s.cache.Stats()
		fmt.Fprintf(s.out, "size=%d max=%d policy=%s hits=%d misses=%d ratio=%.2f\n",
			st.Size, st.MaxSize, st.EvictionPolicy, st.Hits, st.Misses, st.HitRatio)

	case "advance":
		d, err := time.ParseDuration(c.args[0])
		if err != nil {
			return fmt.Errorf("parsing duration: %w", err)
		}
		s.clock.now = s.clock.now.Add(d)
	}
	return nil
}

// eventPrinter writes one "event:" line per cache notification.
func eventPrinter(w io.Writer) *cellar.ListenerFuncs[string, string] {
	return &cellar.ListenerFuncs[string, string]{
		Set:    func(k, v string) { fmt.Fprintf(w, "event: set %s=%s\n", k, v) },
		Update: func(k, v string) { fmt.Fprintf(w, "event: update %s=%s\n", k, v) },
		Delete: func(k, v string) { fmt.Fprintf(w, "event: delete %s=%s\n", k, v) },
		Evict:  func(k, v string) { fmt.Fprintf(w, "event: evict %s=%s\n", k, v) },
		Clear:  func() { fmt.Fprintln(w, "event: clear") },
		UpdateAccess: func(order []string) {
			fmt.Fprintf(w, "event: access [%s]\n", strings.Join(order, " "))
		},
		EvictionError: func(err error) {
			fmt.Fprintf(w, "event: eviction error: %v\n", err)
		},
		CacheEmptyForEviction: func() { fmt.Fprintln(w, "event: nothing to evict") },
		Error: func(k, v string, err error) {
			fmt.Fprintf(w, "event: error on %s: %v\n", k, err)
		},
	}
}
