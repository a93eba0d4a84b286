// Local HTTP server for metric queries and scheduler control requests
package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"strconv"
	"strings"
)

// Read in web static files at compile time
//
//go:embed static-files/help.html
var webFiles embed.FS

// Sets up HTTP listener configuration. A nil controller serves metrics only.
func SetupListener(ctx context.Context, port int, queries Queries, control Controller) (server *http.Server, err error) {
	requestMultiplexer := http.NewServeMux()

	helpPage, err := webFiles.ReadFile("static-files/help.html")
	if err != nil {
		err = fmt.Errorf("failed reading help html page from internal fs: %w", err)
		return
	}

	replacer := strings.NewReplacer(
		"@@LISTEN_ADDR@@", global.HTTPListenAddr,
		"@@LISTEN_PORT@@", strconv.Itoa(port),
		"@@DATA_PATH@@", global.DataPath,
		"@@DISCOVER_PATH@@", global.DiscoveryPath,
		"@@AGGREGATION_PATH@@", global.AggregationPath,
		"@@STATUS_PATH@@", global.StatusPath,
		"@@TRANSFERS_PATH@@", global.TransfersPath,
		"@@READ_PATH@@", global.ReadRequestPath,
		"@@SCENE_PATH@@", global.SceneRequestPath,
		"@@WRITE_PATH@@", global.WriteRequestPath,
		"@@SCRIPT_PATH@@", global.ScriptPath,
	)
	helpPage = []byte(replacer.Replace(string(helpPage)))

	// Root help page
	requestMultiplexer.HandleFunc("/", func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		if clientRequest.Method != http.MethodGet {
			serverResponder.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if clientRequest.URL.Path != "/" {
			serverResponder.WriteHeader(http.StatusNotFound)
			return
		}

		serverResponder.Header().Set("Content-Type", "text/html; charset=utf-8")
		serverResponder.WriteHeader(http.StatusOK)
		serverResponder.Write(helpPage)
	})

	handle := func(path, method string, handler func(http.ResponseWriter, *http.Request)) {
		requestMultiplexer.HandleFunc(path, func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
			if clientRequest.Method != method {
				serverResponder.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			handler(serverResponder, clientRequest)
		})
	}

	handle(global.DiscoveryPath, http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		handleDiscovery(ctx, queries.Discover, w, r)
	})
	handle(global.DataPath, http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		handleData(ctx, queries.Search, w, r)
	})
	handle(global.AggregationPath, http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		handleAggregation(ctx, queries.Aggregate, w, r)
	})

	if control != nil {
		handle(global.StatusPath, http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
			jResp(ctx, w, control.Status(r.Context()))
		})
		handle(global.TransfersPath, http.MethodDelete, func(w http.ResponseWriter, r *http.Request) {
			handleCancelTransfer(ctx, control, w, r)
		})
		handle(global.ReadRequestPath, http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
			handleNodeRead(ctx, control, w, r)
		})
		handle(global.WriteRequestPath, http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
			handleNodeWrite(ctx, control, w, r)
		})
		handle(global.SceneRequestPath, http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
			handleScene(ctx, control, w, r)
		})
		handle(global.ScriptPath, http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
			handleScript(ctx, control, w, r)
		})
	}

	// Server configuration
	server = &http.Server{
		Addr:         global.HTTPListenAddr + ":" + strconv.Itoa(port),
		Handler:      requestMultiplexer,
		ReadTimeout:  global.HTTPReadTimeout,
		WriteTimeout: global.HTTPWriteTimeout,
		IdleTimeout:  global.HTTPIdleTimeout,
		ErrorLog:     log.New(httpLogWriter{ctx: ctx}, "", 0),
	}
	return
}

// Starts the HTTP server and waits for requests
func Start(ctx context.Context, server *http.Server) {
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Query server starting on %s (http://%s/)\n",
		server.Addr,
		server.Addr,
	)
	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Query server failed to start: %v\n", err)
	}
}

// Encodes JSON and sends as response body
func jResp(ctx context.Context, serverResponder http.ResponseWriter, content any) {
	jRespStatus(ctx, serverResponder, http.StatusOK, content)
}

func jRespStatus(ctx context.Context, serverResponder http.ResponseWriter, status int, content any) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(content); err != nil {
		serverResponder.WriteHeader(http.StatusInternalServerError)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Failed marshaling response: %v\n", err)
		return
	}
	serverResponder.Header().Set("Content-Type", "application/json")
	serverResponder.WriteHeader(status)
	serverResponder.Write(buf.Bytes())
}

// Logs HTTP server errors to internal program buffer (via context logger)
func (logWriter httpLogWriter) Write(p []byte) (n int, err error) {
	n = len(p)
	if n == 0 {
		return
	}
	logctx.LogEvent(
		logWriter.ctx,
		global.VerbosityStandard,
		global.ErrorLog,
		"%s\n", strings.TrimSpace(string(p)),
	)
	return
}
