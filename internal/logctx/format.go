package logctx

import (
	"strings"
	"time"
)

// Nanoseconds always take nine digits so columns line up
const paddedTimestamp = "2006-01-02T15:04:05.000000000Z07:00"

// Stringify full event. Newlines are left to the message creator.
func (event Event) Format() (text string) {
	var line strings.Builder
	field := func(value string, bracketed bool) {
		if value == "" {
			return
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		if bracketed {
			value = "[" + value + "]"
		}
		line.WriteString(value)
	}

	if !event.Timestamp.IsZero() {
		field(padTimestamp(event.Timestamp), true)
	}
	field(strings.Join(event.Tags, "/"), true)
	field(event.Severity, true)
	field(event.Message, false)

	text = line.String()
	return
}

// Fixed length timestamps. Whole seconds keep the short RFC 3339 form.
func padTimestamp(timestamp time.Time) (formatted string) {
	if timestamp.Nanosecond() == 0 {
		formatted = timestamp.Format(time.RFC3339)
		return
	}
	formatted = timestamp.Format(paddedTimestamp)
	return
}
