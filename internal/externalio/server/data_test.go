package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slicerlogic/internal/global"
	"slicerlogic/internal/metrics"
	"testing"
)

func TestHandleDataAndAggregation(t *testing.T) {
	ctx := context.Background()

	data := func(w http.ResponseWriter, r *http.Request) {
		handleData(ctx, mockDataSearcher(nil), w, r)
	}
	agg := func(w http.ResponseWriter, r *http.Request) {
		handleAggregation(ctx, mockAggSearcher(metrics.Metric{}, nil), w, r)
	}
	aggFailing := func(w http.ResponseWriter, r *http.Request) {
		handleAggregation(ctx, mockAggSearcher(metrics.Metric{}, errors.New("boom")), w, r)
	}

	tests := []struct {
		name       string
		path       string
		handler    func(http.ResponseWriter, *http.Request)
		wantStatus int
	}{
		{"data default times", global.DataPath + "Daemon/Scheduler?name=reads_processed", data, http.StatusOK},
		{"data invalid starttime", global.DataPath + "?starttime=badtime", data, http.StatusBadRequest},
		{"data unparsable relative start falls back", global.DataPath + "?starttime=-5w", data, http.StatusOK},
		{"data relative end time rejected", global.DataPath + "?endtime=+2y", data, http.StatusBadRequest},
		{"data relative start past", global.DataPath + "?starttime=-5m", data, http.StatusOK},
		{"data start after end", global.DataPath + "?starttime=+15m", data, http.StatusBadRequest},
		{"data absolute start", global.DataPath + "?starttime=2001-01-02T01:02:03.001Z", data, http.StatusOK},
		{"agg invalid starttime", global.AggregationPath + "?starttime=badtime", agg, http.StatusBadRequest},
		{"agg relative start past", global.AggregationPath + "Daemon/DataIO?name=bytes_received&aggregation=sum&starttime=-5m", agg, http.StatusOK},
		{"agg start after end", global.AggregationPath + "?starttime=+15m", agg, http.StatusBadRequest},
		{"agg error returned as JSON", global.AggregationPath + "?aggregation=sum", aggFailing, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)

			tt.handler(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d want=%d", rr.Code, tt.wantStatus)
			}
		})
	}
}
