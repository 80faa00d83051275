package logbook

import (
	"strings"
	"time"
)

// Wire format, one record per line:
//
//	2025-10-28 14:03:22,123 — INFO [backup,start] -> src/backup.go:42@pi -> Starting Backup
//
// The bracketed tag segment and the source@host segment are each optional.
// A record carrying neither renders in the pre-tag legacy format
// (TS — LEVEL — message), which keeps old files parseable by the same code.
const (
	timeLayout     = "2006-01-02 15:04:05,000"
	timeLayoutNoMS = "2006-01-02 15:04:05"
	fieldSep       = " — "
	arrowSep       = " -> "
)

// FormatLine renders r as a single line, without the trailing newline.
// The rendering is lossless for every field it includes.
func FormatLine(r Record) string {
	level := r.Level
	if level == levelUnset {
		level = INFO
	}

	var b strings.Builder
	b.WriteString(r.Timestamp.Format(timeLayout))
	b.WriteString(fieldSep)
	b.WriteString(level.String())

	source := sourceSegment(r.Source, r.Host)
	if len(r.Tags) == 0 && source == "" {
		b.WriteString(fieldSep)
		b.WriteString(r.Message)
		return b.String()
	}

	if len(r.Tags) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(r.Tags, ","))
		b.WriteString("]")
	}
	b.WriteString(arrowSep)
	if source != "" {
		b.WriteString(source)
		b.WriteString(arrowSep)
	}
	b.WriteString(r.Message)
	return b.String()
}

func sourceSegment(source, host string) string {
	if host == "" {
		return source
	}
	return source + "@" + host
}

// ParseLine is the inverse of FormatLine. It tolerates lines written before
// tag support existed, lines without a source segment, and an unrecognized
// level token (absorbed into the message rather than rejected). It returns
// ErrMalformedLine only when the line has no parseable timestamp prefix.
func ParseLine(line string) (Record, error) {
	ts, rest, ok := parseTimestamp(line)
	if !ok {
		return Record{}, ErrMalformedLine
	}

	r := Record{Timestamp: ts, Level: INFO}

	rest = strings.TrimPrefix(rest, fieldSep)
	rest = strings.TrimLeft(rest, " ")

	token, after := cutToken(rest)
	level, recognized := ParseLevel(token)
	if !recognized {
		// Favor availability over strictness: keep the whole remainder.
		r.Message = rest
		return r, nil
	}
	r.Level = level
	rest = after

	// Legacy separator means no tags and no source follow.
	if msg, found := strings.CutPrefix(rest, fieldSep); found {
		r.Message = msg
		return r, nil
	}

	if strings.HasPrefix(rest, " [") {
		end := strings.Index(rest, "]")
		if end >= 0 {
			r.Tags = splitTags(rest[2:end])
			rest = rest[end+1:]
		}
	}

	if msg, found := strings.CutPrefix(rest, arrowSep); found {
		if idx := strings.Index(msg, arrowSep); idx >= 0 {
			r.Source, r.Host = splitSource(msg[:idx])
			msg = msg[idx+len(arrowSep):]
		}
		r.Message = msg
		return r, nil
	}

	r.Message = strings.TrimPrefix(rest, " ")
	return r, nil
}

func parseTimestamp(line string) (time.Time, string, bool) {
	if len(line) >= len(timeLayout) {
		if ts, err := time.ParseInLocation(timeLayout, line[:len(timeLayout)], time.Local); err == nil {
			return ts, line[len(timeLayout):], true
		}
	}
	if len(line) >= len(timeLayoutNoMS) {
		if ts, err := time.ParseInLocation(timeLayoutNoMS, line[:len(timeLayoutNoMS)], time.Local); err == nil {
			return ts, line[len(timeLayoutNoMS):], true
		}
	}
	return time.Time{}, "", false
}

func cutToken(s string) (token, rest string) {
	if idx := strings.IndexByte(s, ' '); idx >= 0 {
		return s[:idx], s[idx:]
	}
	return s, ""
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

func splitSource(s string) (source, host string) {
	if idx := strings.LastIndexByte(s, '@'); idx >= 0 {
		return s[:idx], s[idx+1:]
	}
	return s, ""
}
