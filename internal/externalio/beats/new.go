// Publishes request-processed events to a beats (lumberjack v2) server
package beats

import (
	"fmt"
	"slicerlogic/internal/global"
	"time"

	lumberjack "github.com/elastic/go-lumber/client/v2"
)

// Creates new beats (lumberjack) output module. Returns nil nil if no endpoint.
func NewOutput(endpoint string) (module *OutModule, err error) {
	if endpoint == "" {
		return
	}

	compression := lumberjack.CompressionLevel(3)
	timeout := lumberjack.Timeout(global.BeatsTimeout)

	ljClient, err := lumberjack.SyncDial(endpoint, compression, timeout)
	if err != nil {
		err = fmt.Errorf("failed connection to beats server: %w", err)
		return
	}

	module = newModule(ljClient, global.BeatsBufferSize, global.BeatsBatchSize, global.BeatsFlushInterval)
	return
}

func newModule(client sink, bufferSize, batchMax int, flush time.Duration) (module *OutModule) {
	module = &OutModule{
		sink:     client,
		events:   make(chan Event, bufferSize),
		batchMax: batchMax,
		flush:    flush,
		done:     make(chan struct{}),
	}
	return
}
