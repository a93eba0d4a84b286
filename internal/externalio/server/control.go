package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slicerlogic/internal/global"
	"slicerlogic/internal/logctx"
	"strconv"
	"strings"
)

// Decodes a size limited JSON body, rejecting unknown fields
func decodeBody(clientRequest *http.Request, target any) (err error) {
	decoder := json.NewDecoder(io.LimitReader(clientRequest.Body, global.HTTPMaxBodySize))
	decoder.DisallowUnknownFields()
	err = decoder.Decode(target)
	if err != nil {
		err = fmt.Errorf("invalid request body: %w", err)
	}
	return
}

func accepted(ctx context.Context, serverResponder http.ResponseWriter, uid uint64, ok bool) {
	if !ok {
		jRespStatus(ctx, serverResponder, http.StatusServiceUnavailable, Jerror{Msg: "scheduler is not running"})
		return
	}
	jRespStatus(ctx, serverResponder, http.StatusAccepted, Jaccepted{UID: uid})
}

// Without a file the node's own storage is read, downloading remote references first
func handleNodeRead(ctx context.Context, control Controller, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	var body nodeRequest
	if err := decodeBody(clientRequest, &body); err != nil {
		jRespStatus(ctx, serverResponder, http.StatusBadRequest, Jerror{Msg: err.Error()})
		return
	}
	if body.NodeID == "" {
		jRespStatus(ctx, serverResponder, http.StatusBadRequest, Jerror{Msg: "missing node"})
		return
	}

	if body.File != "" {
		uid, ok := control.RequestReadData(body.NodeID, body.File, body.DisplayData, body.DeleteFileAfter)
		accepted(ctx, serverResponder, uid, ok)
		return
	}

	queued, err := control.QueueNodeRead(clientRequest.Context(), body.NodeID, body.DisplayData)
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog, "read of node %s refused: %v\n", body.NodeID, err)
		jRespStatus(ctx, serverResponder, http.StatusConflict, Jerror{Msg: err.Error()})
		return
	}
	jRespStatus(ctx, serverResponder, http.StatusAccepted, Jaccepted{Queued: queued})
}

func handleNodeWrite(ctx context.Context, control Controller, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	var body nodeRequest
	if err := decodeBody(clientRequest, &body); err != nil {
		jRespStatus(ctx, serverResponder, http.StatusBadRequest, Jerror{Msg: err.Error()})
		return
	}
	if body.NodeID == "" || body.File == "" {
		jRespStatus(ctx, serverResponder, http.StatusBadRequest, Jerror{Msg: "node and file are required"})
		return
	}
	uid, ok := control.RequestWriteData(body.NodeID, body.File, body.DisplayData, body.DeleteFileAfter)
	accepted(ctx, serverResponder, uid, ok)
}

// ?mode=write commits instead of loading
func handleScene(ctx context.Context, control Controller, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	var body sceneRequest
	if err := decodeBody(clientRequest, &body); err != nil {
		jRespStatus(ctx, serverResponder, http.StatusBadRequest, Jerror{Msg: err.Error()})
		return
	}
	if body.File == "" {
		jRespStatus(ctx, serverResponder, http.StatusBadRequest, Jerror{Msg: "missing file"})
		return
	}

	var uid uint64
	var ok bool
	switch clientRequest.URL.Query().Get("mode") {
	case "", "read":
		uid, ok = control.RequestReadScene(body.File, body.Targets, body.Sources, body.DisplayData, body.DeleteFileAfter)
	case "write":
		uid, ok = control.RequestWriteScene(body.File, body.Targets, body.Sources, body.DisplayData, body.DeleteFileAfter)
	default:
		jRespStatus(ctx, serverResponder, http.StatusBadRequest, Jerror{Msg: "mode must be read or write"})
		return
	}
	accepted(ctx, serverResponder, uid, ok)
}

// Body is the raw script text; ?name= labels the batch in logs
func handleScript(ctx context.Context, control Controller, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	text, err := io.ReadAll(io.LimitReader(clientRequest.Body, global.HTTPMaxBodySize))
	if err != nil {
		jRespStatus(ctx, serverResponder, http.StatusBadRequest, Jerror{Msg: err.Error()})
		return
	}
	if strings.TrimSpace(string(text)) == "" {
		jRespStatus(ctx, serverResponder, http.StatusBadRequest, Jerror{Msg: "empty script"})
		return
	}

	name := clientRequest.URL.Query().Get("name")
	if name == "" {
		name = "http"
	}
	uid, ok := control.RunScript(name, string(text))
	accepted(ctx, serverResponder, uid, ok)
}

// DELETE /transfers?id=<n>
func handleCancelTransfer(ctx context.Context, control Controller, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	id, err := strconv.ParseUint(clientRequest.URL.Query().Get("id"), 10, 64)
	if err != nil {
		jRespStatus(ctx, serverResponder, http.StatusBadRequest, Jerror{Msg: "invalid transfer id"})
		return
	}
	if !control.CancelTransfer(id) {
		jRespStatus(ctx, serverResponder, http.StatusNotFound, Jerror{Msg: "no pending or running transfer with that id"})
		return
	}
	serverResponder.WriteHeader(http.StatusNoContent)
}
