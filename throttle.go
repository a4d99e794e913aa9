// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetpdf

import "log/slog"

// Throttle counts render requests per (destination, title) key and cuts
// them off at a fixed ceiling. It is explicit injected state, owned by
// the caller, so tests and restarts reset it trivially. Callers treat a
// refused request as a successful no-op, which turns an upstream retry
// loop into bounded work instead of an error cascade.
//
// Not safe for concurrent use; the engine is single-threaded.
type Throttle struct {
	log   *slog.Logger
	count map[string]int
	limit int
}

// NewThrottle returns a Throttle allowing limit generations per key.
// limit <= 0 means the default ceiling.
func NewThrottle(limit int, log *slog.Logger) *Throttle {
	if limit <= 0 {
		limit = DefaultOptions().MaxGenerations
	}
	if log == nil {
		log = slog.Default()
	}
	return &Throttle{count: make(map[string]int), limit: limit, log: log}
}

// Allow increments the counter for (destination, title) and reports
// whether a real render may run. The first refusal per key logs a
// warning.
func (t *Throttle) Allow(destination, title string) bool {
	key := destination + "\x00" + title
	t.count[key]++
	if t.count[key] <= t.limit {
		return true
	}
	if t.count[key] == t.limit+1 {
		t.log.Warn("excessive PDF generation detected, suppressing further renders",
			"destination", destination, "title", title, "limit", t.limit)
	}
	return false
}

// Attempts reports how many times the key has been requested.
func (t *Throttle) Attempts(destination, title string) int {
	return t.count[destination+"\x00"+title]
}

// Reset clears all counters.
func (t *Throttle) Reset() { t.count = make(map[string]int) }
