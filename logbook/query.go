package logbook

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Criteria filters log records. All supplied categories must match (AND);
// within Tags a record matches if it carries at least one of the requested
// tags (OR). The zero value matches every record.
type Criteria struct {
	Tags    []string  // match-any, case-sensitive
	Level   Level     // exact match when set
	Message string    // case-insensitive substring
	Path    string    // case-insensitive substring of the source segment
	Host    string    // case-insensitive substring
	Date    time.Time // calendar-date match when set
}

type Engine struct {
	cfg *Config
}

func NewEngine(cfg *Config) *Engine {
	return &Engine{cfg: cfg}
}

// Query streams the target file line by line and returns matching records
// in file order. Malformed lines (including a partially-written final line
// from a concurrent writer) are skipped, never fatal. A missing file is a
// normal state for a fresh daily log and yields an empty result, not an
// error. The scan is a single pass; the file is never mutated.
func (e *Engine) Query(file string, c Criteria) ([]Record, error) {
	if file == "" {
		file = DailyLogName(e.cfg.now())
	}
	path := file
	if !filepath.IsAbs(file) {
		path = filepath.Join(e.cfg.Root, file)
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var matches []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		rec, err := ParseLine(scanner.Text())
		if err != nil {
			continue
		}
		if c.matches(rec) {
			matches = append(matches, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return matches, fmt.Errorf("scan log file: %w", err)
	}
	return matches, nil
}

func (c Criteria) matches(r Record) bool {
	if len(c.Tags) > 0 && !hasAnyTag(r.Tags, c.Tags) {
		return false
	}
	if c.Level != levelUnset && r.Level != c.Level {
		return false
	}
	if c.Message != "" && !containsFold(r.Message, c.Message) {
		return false
	}
	if c.Path != "" && !containsFold(r.Source, c.Path) {
		return false
	}
	if c.Host != "" && !containsFold(r.Host, c.Host) {
		return false
	}
	if !c.Date.IsZero() && !sameDay(r.Timestamp, c.Date) {
		return false
	}
	return true
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
