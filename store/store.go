// Package store implements cabinet's key-path store: nested values
// addressed by a sequence of keys, persisted either as an indented JSON
// file or as a document in a local sqlite database, with an optional
// read-through cache in front.
package store

import (
	"errors"
	"fmt"
	"io"
)

type Store interface {
	// Get traverses the document along keys, e.g.
	// Get("person", "tyler", "salary"). Missing paths return ErrNotFound.
	Get(keys ...string) (any, error)
	// Put sets the value at the key path, creating intermediate objects.
	// When both the existing and the new value are objects they are
	// deep-merged rather than replaced.
	Put(value any, keys ...string) error
	Remove(keys ...string) error
	Export(w io.Writer) error
}

// Backend is a Store that can hand out its whole document, which is what
// the read-through cache snapshots.
type Backend interface {
	Store
	Load() (map[string]any, error)
}

var ErrNotFound = errors.New("key path not found")

func traverse(doc map[string]any, keys []string) (any, error) {
	var current any = doc
	for _, key := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		current, ok = m[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
	}
	return current, nil
}

func putPath(doc map[string]any, value any, keys []string) error {
	if len(keys) == 0 {
		return errors.New("empty key path")
	}

	current := doc
	for _, key := range keys[:len(keys)-1] {
		next, ok := current[key]
		if !ok {
			child := map[string]any{}
			current[key] = child
			current = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%q holds a scalar, not an object with properties", key)
		}
		current = child
	}

	last := keys[len(keys)-1]
	if existing, ok := current[last].(map[string]any); ok {
		if incoming, ok := value.(map[string]any); ok {
			current[last] = mergeNested(existing, incoming)
			return nil
		}
	}
	current[last] = value
	return nil
}

func removePath(doc map[string]any, keys []string) error {
	if len(keys) == 0 {
		return errors.New("empty key path")
	}

	current := doc
	for _, key := range keys[:len(keys)-1] {
		next, ok := current[key].(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		current = next
	}

	last := keys[len(keys)-1]
	if _, ok := current[last]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, last)
	}
	delete(current, last)
	return nil
}

// mergeNested overlays incoming onto existing, descending into objects
// present on both sides. Scalars from incoming win.
func mergeNested(existing, incoming map[string]any) map[string]any {
	merged := make(map[string]any, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range incoming {
		ev, haveExisting := merged[k]
		em, existingIsMap := ev.(map[string]any)
		im, incomingIsMap := v.(map[string]any)
		if haveExisting && existingIsMap && incomingIsMap {
			merged[k] = mergeNested(em, im)
		} else {
			merged[k] = v
		}
	}
	return merged
}
