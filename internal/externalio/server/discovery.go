package server

import (
	"context"
	"net/http"
	"slicerlogic/internal/global"
	"slicerlogic/internal/metrics"
	"strings"
)

var metricTypes = map[string]metrics.MetricType{
	"":                      "",
	string(metrics.Counter): metrics.Counter,
	string(metrics.Gauge):   metrics.Gauge,
	string(metrics.Summary): metrics.Summary,
}

// Lists one sample per matching metric, no time range
func handleDiscovery(baseCtx context.Context, discover Discoverer, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	var reqNamespace []string
	if rawNamespace := strings.TrimPrefix(clientRequest.URL.Path, global.DiscoveryPath); rawNamespace != "" {
		reqNamespace = strings.Split(strings.TrimSuffix(rawNamespace, "/"), "/")
	}

	reqType, known := metricTypes[strings.ToLower(clientRequest.FormValue("type"))]
	if !known {
		serverResponder.WriteHeader(http.StatusBadRequest)
		return
	}

	rawResults := discover(
		clientRequest.FormValue("name"),
		clientRequest.FormValue("description"),
		reqNamespace,
		clientRequest.FormValue("unit"),
		reqType,
	)

	results := make([]metrics.JMetric, 0, len(rawResults))
	for _, rawResult := range rawResults {
		results = append(results, rawResult.Convert())
	}

	if len(results) == 0 {
		jResp(baseCtx, serverResponder, Jerror{Msg: "Search returned no results"})
		return
	}
	jResp(baseCtx, serverResponder, results)
}
