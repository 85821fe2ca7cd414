package main

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// parseBound accepts a date or an RFC3339 timestamp. A bare date used as an
// upper bound covers the whole day.
func parseBound(raw string, upper bool) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), true, nil
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC3339", raw)
	}
	if upper {
		day = day.Add(24*time.Hour - time.Second)
	}
	return day.UTC(), true, nil
}

// resolveWindow applies --from/--to over a default window that starts at
// now+startOffset and lasts span.
func resolveWindow(fromRaw, toRaw string, now time.Time, startOffset, span time.Duration) (time.Time, time.Time, error) {
	from, hasFrom, err := parseBound(fromRaw, false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, hasTo, err := parseBound(toRaw, true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	switch {
	case !hasFrom && !hasTo:
		from = now.Add(startOffset)
		to = from.Add(span)
	case !hasFrom:
		from = to.Add(-span)
	case !hasTo:
		to = from.Add(span)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to must be after --from")
	}
	return from.UTC(), to.UTC(), nil
}

func broadcastWindow(flags *runFlags, now time.Time, lookahead time.Duration) (time.Time, time.Time, error) {
	return resolveWindow(flags.from, flags.to, now, 0, lookahead)
}

func resultWindow(flags *runFlags, now time.Time, lookback time.Duration) (time.Time, time.Time, error) {
	return resolveWindow(flags.from, flags.to, now, -lookback, lookback)
}
