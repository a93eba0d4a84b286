package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slicerlogic/internal/global"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestControlRequests(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		stopped    bool
		readErr    error
		wantStatus int
		wantCalls  []string
	}{
		{
			name:       "read with file",
			method:     http.MethodPost,
			path:       global.ReadRequestPath,
			body:       `{"node":"ScalarVolume1","file":"/data/brain.nrrd","displayData":true}`,
			wantStatus: http.StatusAccepted,
			wantCalls:  []string{"read ScalarVolume1 /data/brain.nrrd"},
		},
		{
			name:       "read from node storage",
			method:     http.MethodPost,
			path:       global.ReadRequestPath,
			body:       `{"node":"Model1"}`,
			wantStatus: http.StatusAccepted,
			wantCalls:  []string{"queueRead Model1"},
		},
		{
			name:       "read from node storage refused",
			method:     http.MethodPost,
			path:       global.ReadRequestPath,
			body:       `{"node":"Model1"}`,
			readErr:    errors.New("free memory below download floor"),
			wantStatus: http.StatusConflict,
		},
		{
			name:       "read missing node",
			method:     http.MethodPost,
			path:       global.ReadRequestPath,
			body:       `{"file":"/data/brain.nrrd"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field rejected",
			method:     http.MethodPost,
			path:       global.ReadRequestPath,
			body:       `{"node":"a","colour":"red"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "read while stopped",
			method:     http.MethodPost,
			path:       global.ReadRequestPath,
			body:       `{"node":"a","file":"/tmp/a.nrrd"}`,
			stopped:    true,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "write needs a file",
			method:     http.MethodPost,
			path:       global.WriteRequestPath,
			body:       `{"node":"Model1"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "write",
			method:     http.MethodPost,
			path:       global.WriteRequestPath,
			body:       `{"node":"Model1","file":"/out/model.vtk"}`,
			wantStatus: http.StatusAccepted,
			wantCalls:  []string{"write Model1 /out/model.vtk"},
		},
		{
			name:       "scene read",
			method:     http.MethodPost,
			path:       global.SceneRequestPath,
			body:       `{"file":"/data/scene.yaml","targets":["a"],"sources":["b"]}`,
			wantStatus: http.StatusAccepted,
			wantCalls:  []string{"readScene /data/scene.yaml"},
		},
		{
			name:       "scene write",
			method:     http.MethodPost,
			path:       global.SceneRequestPath + "?mode=write",
			body:       `{"file":"/data/scene.yaml"}`,
			wantStatus: http.StatusAccepted,
			wantCalls:  []string{"writeScene /data/scene.yaml"},
		},
		{
			name:       "scene bad mode",
			method:     http.MethodPost,
			path:       global.SceneRequestPath + "?mode=merge",
			body:       `{"file":"/data/scene.yaml"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "script",
			method:     http.MethodPost,
			path:       global.ScriptPath + "?name=setup",
			body:       "set v Model1\nhide $v\n",
			wantStatus: http.StatusAccepted,
			wantCalls:  []string{"script setup"},
		},
		{
			name:       "empty script",
			method:     http.MethodPost,
			path:       global.ScriptPath,
			body:       "  \n",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "cancel known transfer",
			method:     http.MethodDelete,
			path:       global.TransfersPath + "?id=7",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "cancel unknown transfer",
			method:     http.MethodDelete,
			path:       global.TransfersPath + "?id=8",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "cancel bad id",
			method:     http.MethodDelete,
			path:       global.TransfersPath + "?id=x",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			control := &mockController{stopped: tt.stopped, readErr: tt.readErr}
			server, err := SetupListener(context.Background(), 8080, mockQueries(), control)
			if err != nil {
				t.Fatalf("SetupListener error: %v", err)
			}

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			server.Handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d want=%d body=%s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if diff := cmp.Diff(tt.wantCalls, control.calls); diff != "" {
				t.Fatalf("controller calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStatusResponse(t *testing.T) {
	server, err := SetupListener(context.Background(), 8080, mockQueries(), &mockController{})
	if err != nil {
		t.Fatalf("SetupListener error: %v", err)
	}

	rr := httptest.NewRecorder()
	server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, global.StatusPath, nil))

	var got Status
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("failed decoding status: %v", err)
	}
	want := Status{Scheduler: "Running", ReadQueue: 3, Nodes: 12}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}
}
