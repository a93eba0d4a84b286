package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slicerlogic/internal/externalio/server"
	"slicerlogic/internal/global"
	"strconv"
	"strings"
	"time"
)

type loadOptions struct {
	node            string
	scene           bool
	targets         string
	sources         string
	displayData     bool
	deleteFileAfter bool
}

// Builds the control request for a file. Scene loads go to the scene endpoint.
func (opts loadOptions) request(file string) (path string, body any, err error) {
	if file == "" {
		err = fmt.Errorf("no file given")
		return
	}
	if !strings.Contains(file, "://") {
		file, err = filepath.Abs(file)
		if err != nil {
			return
		}
	}

	if opts.scene {
		path = global.SceneRequestPath + "?mode=read"
		body = map[string]any{
			"file":            file,
			"targets":         splitList(opts.targets),
			"sources":         splitList(opts.sources),
			"displayData":     opts.displayData,
			"deleteFileAfter": opts.deleteFileAfter,
		}
		return
	}

	if opts.node == "" {
		err = fmt.Errorf("data loads need a target node (--node)")
		return
	}
	path = global.ReadRequestPath
	body = map[string]any{
		"node":            opts.node,
		"file":            file,
		"displayData":     opts.displayData,
		"deleteFileAfter": opts.deleteFileAfter,
	}
	return
}

func splitList(raw string) (list []string) {
	list = []string{}
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field != "" {
			list = append(list, field)
		}
	}
	return
}

// Posts one control request to a running daemon
func submit(ctx context.Context, baseURL, path string, body any) (resp server.Jaccepted, err error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := http.DefaultClient.Do(req)
	if err != nil {
		return
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, global.HTTPMaxBodySize))
	if err != nil {
		return
	}

	if httpResp.StatusCode != http.StatusAccepted {
		var jerr server.Jerror
		if json.Unmarshal(raw, &jerr) == nil && jerr.Msg != "" {
			err = fmt.Errorf("daemon refused request (%s): %s", httpResp.Status, jerr.Msg)
		} else {
			err = fmt.Errorf("daemon refused request (%s)", httpResp.Status)
		}
		return
	}

	err = json.Unmarshal(raw, &resp)
	if err != nil {
		err = fmt.Errorf("invalid daemon response: %w", err)
	}
	return
}

func LoadMode(ctx context.Context, commandname string, args []string) {
	var opts loadOptions
	var port int

	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	SetGlobalArguments(commandFlags)
	commandFlags.StringVar(&opts.node, "n", "", "Target node ID for a data load")
	commandFlags.StringVar(&opts.node, "node", "", "Target node ID for a data load")
	commandFlags.BoolVar(&opts.scene, "s", false, "Import the file as a scene")
	commandFlags.BoolVar(&opts.scene, "scene", false, "Import the file as a scene")
	commandFlags.StringVar(&opts.targets, "targets", "", "Comma separated existing node IDs that receive imported data (scene only)")
	commandFlags.StringVar(&opts.sources, "sources", "", "Comma separated node IDs in the file matched to --targets (scene only)")
	commandFlags.BoolVar(&opts.displayData, "display", false, "Show loaded data once the read completes")
	commandFlags.BoolVar(&opts.deleteFileAfter, "delete-after", false, "Remove the file after it has been read")
	commandFlags.IntVar(&port, "p", global.HTTPListenPort, "Port of the local daemon control server")
	commandFlags.IntVar(&port, "port", global.HTTPListenPort, "Port of the local daemon control server")

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, global.CmdOpts)
	}
	if len(args) < 1 {
		PrintHelpMenu(commandFlags, commandname, global.CmdOpts)
		os.Exit(1)
	}
	commandFlags.Parse(args)

	path, body, err := opts.request(commandFlags.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	baseURL := "http://" + global.HTTPListenAddr + ":" + strconv.Itoa(port)
	resp, err := submit(ctx, baseURL, path, body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Queued request %d\n", resp.UID)
}
