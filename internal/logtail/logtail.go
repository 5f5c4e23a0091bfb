package logtail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const chunkSize = 32 * 1024

// Read returns at most maxLines from the end of the file at path, oldest
// first. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}

	// Walk backwards a chunk at a time until enough newlines were seen.
	var tail []byte
	offset := info.Size()
	for offset > 0 && bytes.Count(tail, []byte{'\n'}) <= maxLines {
		n := int64(chunkSize)
		if offset < n {
			n = offset
		}
		offset -= n
		chunk := make([]byte, n)
		if _, err := file.ReadAt(chunk, offset); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read log: %w", err)
		}
		tail = append(chunk, tail...)
	}

	text := strings.TrimRight(string(tail), "\n")
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines, nil
}

// Entry is one line of logrus text output split into its fields.
type Entry struct {
	Time      string
	Level     logrus.Level
	Component string
	Message   string
	Fields    map[string]string
	Raw       string
}

// Parse splits a logrus text-formatter line (key=value pairs, values
// optionally quoted). Lines without a recognizable level are kept with
// level info so they still show up in filtered output.
func Parse(line string) Entry {
	e := Entry{Level: logrus.InfoLevel, Raw: line, Fields: map[string]string{}}
	for _, kv := range splitPairs(line) {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch key {
		case "time":
			e.Time = value
		case "level":
			if lvl, err := logrus.ParseLevel(value); err == nil {
				e.Level = lvl
			}
		case "msg":
			e.Message = value
		case "component":
			e.Component = value
		default:
			e.Fields[key] = value
		}
	}
	if e.Message == "" && e.Time == "" {
		e.Message = line
	}
	return e
}

// splitPairs splits on spaces outside double quotes and unquotes values.
func splitPairs(line string) []string {
	var (
		out     []string
		cur     strings.Builder
		quoted  bool
		escaped bool
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case quoted && r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case r == ' ' && !quoted:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// Filter keeps entries at least as severe as min and, when component is not
// empty, only entries from that component.
func Filter(entries []Entry, min logrus.Level, component string) []Entry {
	component = strings.TrimSpace(component)
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Level > min {
			continue
		}
		if component != "" && e.Component != component {
			continue
		}
		out = append(out, e)
	}
	return out
}
