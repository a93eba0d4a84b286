// Central logging system. Buffers messages and writes to configured outputs
package logctx

import (
	"context"
	"fmt"
	"strings"
)

// Entry for logging events
func LogEvent(ctx context.Context, eventLevel int, severity string, message string, vars ...any) {
	logger := GetLogger(ctx)
	if logger == nil {
		return
	}

	var newMsg string
	if len(vars) == 0 || !strings.Contains(message, "%") {
		// Avoiding 'extra' print to log entries
		newMsg = message
	} else {
		newMsg = fmt.Sprintf(message, vars...)
	}
	logger.log(eventLevel, severity, GetTagList(ctx), newMsg)
}
