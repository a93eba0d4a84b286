package server

import (
	"fmt"
	"net/http"
	"time"
)

// Reads starttime/endtime form values. Start defaults to one minute ago and
// accepts a relative duration ("-5m"); end defaults to now.
func parseTimeRange(clientRequest *http.Request) (start, end time.Time, err error) {
	now := time.Now()

	rawStartTime := clientRequest.FormValue("starttime")
	switch {
	case rawStartTime == "":
		start = now.Add(-1 * time.Minute)
	case rawStartTime[0] == '-' || rawStartTime[0] == '+':
		dur, parseErr := time.ParseDuration(rawStartTime)
		if parseErr != nil {
			start = now.Add(-1 * time.Minute)
		} else {
			start = now.Add(dur)
		}
	default:
		start, err = time.Parse(time.RFC3339Nano, rawStartTime)
		if err != nil {
			err = fmt.Errorf("invalid starttime: %w", err)
			return
		}
	}

	rawEndTime := clientRequest.FormValue("endtime")
	if rawEndTime == "now" || rawEndTime == "" {
		end = now
	} else {
		end, err = time.Parse(time.RFC3339Nano, rawEndTime)
		if err != nil {
			err = fmt.Errorf("invalid endtime: %w", err)
			return
		}
	}

	if start.After(end) {
		err = fmt.Errorf("starttime is after endtime")
	}
	return
}
