package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felixgeelhaar/exemplar/internal/config"
)

// errDaemonNotRunning is returned by commands that need the daemon
var errDaemonNotRunning = errors.New("daemon is not running (start it with 'exemplar start')")

// daemonAddr returns the daemon base URL from the local config
func daemonAddr() string {
	port := config.DefaultLocalConfig().Daemon.Port
	if cfg, err := config.LoadLocalConfig(); err == nil {
		port = cfg.Daemon.Port
	}
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// httpClient allows for slow generation requests
var httpClient = &http.Client{Timeout: 5 * time.Minute}

// daemonRequest sends a JSON request to the daemon and decodes a JSON
// response into out. Error responses are turned into Go errors.
func daemonRequest(method, path string, body, out any) error {
	raw, err := daemonRaw(method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// daemonRaw is daemonRequest without decoding the response body
func daemonRaw(method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, daemonAddr()+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, errDaemonNotRunning
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Details != "" {
				return nil, fmt.Errorf("%s: %s", apiErr.Error, apiErr.Details)
			}
			return nil, errors.New(apiErr.Error)
		}
		return nil, fmt.Errorf("daemon returned %s", resp.Status)
	}
	return data, nil
}
