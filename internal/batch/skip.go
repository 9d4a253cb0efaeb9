package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SkipSet holds the keys excluded from a run. Built once before scheduling
// and read-only afterwards. Keys that are not in the catalog are allowed; a
// skip-list carried over from a previous run may be a superset.
type SkipSet map[string]struct{}

func NewSkipSet(keys ...string) SkipSet {
	s := make(SkipSet, len(keys))
	s.Add(keys...)
	return s
}

func (s SkipSet) Add(keys ...string) {
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k != "" {
			s[k] = struct{}{}
		}
	}
}

func (s SkipSet) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

func (s SkipSet) Union(other SkipSet) {
	for k := range other {
		s[k] = struct{}{}
	}
}

func (s SkipSet) Len() int { return len(s) }

// ParseSkipFile reads a skip-list file in any of the three accepted formats:
// a JSON array of keys, a comma-delimited list, or a newline-delimited list
// where blank lines and '#' comments are ignored. The format is inferred from
// the content. A file that was explicitly requested but does not exist or
// cannot be parsed is a fatal ErrSkipSource.
func ParseSkipFile(path string) (SkipSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSkipSource, err)
	}
	set, err := ParseSkipContent(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSkipSource, path, err)
	}
	return set, nil
}

// ParseSkipContent infers the list format from raw bytes and returns the keys.
func ParseSkipContent(raw []byte) (SkipSet, error) {
	trimmed := strings.TrimSpace(string(raw))
	set := NewSkipSet()
	if trimmed == "" {
		return set, nil
	}

	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		var keys []string
		if err := json.Unmarshal([]byte(trimmed), &keys); err != nil {
			return nil, fmt.Errorf("parse json list: %v", err)
		}
		set.Add(keys...)
		return set, nil
	}

	if !strings.ContainsAny(trimmed, "\n") && strings.Contains(trimmed, ",") {
		set.Add(strings.Split(trimmed, ",")...)
		return set, nil
	}

	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set.Add(line)
	}
	return set, nil
}

// ParseInlineSkip parses the --skip-files comma-delimited flag value.
func ParseInlineSkip(list string) SkipSet {
	set := NewSkipSet()
	if strings.TrimSpace(list) == "" {
		return set
	}
	set.Add(strings.Split(list, ",")...)
	return set
}

// FromDir discovers already-produced artifacts in an output directory and
// maps them back to input keys, so a re-run does not redo completed work.
// rewrite converts an artifact name to its input key; a nil rewrite uses the
// artifact name unchanged. A missing directory yields an empty set: nothing
// has been produced yet.
func FromDir(dir string, rewrite func(artifact string) (string, bool)) (SkipSet, error) {
	set := NewSkipSet()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrSkipSource, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := filepath.Base(entry.Name())
		if rewrite != nil {
			key, ok := rewrite(name)
			if !ok {
				continue
			}
			name = key
		}
		set.Add(name)
	}
	return set, nil
}

// BuildSkipSet unions the optional skip sources a stage runner accepts: a
// skip-list file path and an inline comma list. Empty arguments degrade to an
// empty set; only an explicitly named file that cannot be read is an error.
func BuildSkipSet(skipListPath, inline string) (SkipSet, error) {
	set := NewSkipSet()
	if skipListPath != "" {
		fromFile, err := ParseSkipFile(skipListPath)
		if err != nil {
			return nil, err
		}
		set.Union(fromFile)
	}
	set.Union(ParseInlineSkip(inline))
	return set, nil
}
