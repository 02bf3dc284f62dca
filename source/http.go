package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"clusterwatch/alerts"
	"clusterwatch/cluster"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxHTTPBody = 4 << 20

// HTTP fetches the registry from a cluster API. The document has the same
// "cluster" and "alerts" keys as the admin /api/state response, so one
// dashboard can seed another.
type HTTP struct {
	URL       string
	UserAgent string
	// Client defaults to one with a 10s timeout.
	Client *http.Client
}

type httpDocument struct {
	Cluster cluster.State  `json:"cluster"`
	Alerts  []alerts.Event `json:"alerts"`
}

func (h HTTP) fetch(ctx context.Context) (httpDocument, error) {
	var doc httpDocument
	url := strings.TrimSpace(h.URL)
	if url == "" {
		return doc, fmt.Errorf("%w: source URL is empty", ErrUnavailable)
	}
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return doc, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		return doc, fmt.Errorf("%w: fetch %s: %v", ErrUnavailable, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return doc, fmt.Errorf("%w: fetch %s: status %s", ErrUnavailable, url, resp.Status)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxHTTPBody)).Decode(&doc); err != nil {
		return doc, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, url, err)
	}
	return doc, nil
}

func (h HTTP) FetchInitialClusterState(ctx context.Context) (cluster.State, error) {
	doc, err := h.fetch(ctx)
	if err != nil {
		return cluster.State{}, err
	}
	if err := cluster.Validate(doc.Cluster); err != nil {
		return cluster.State{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, h.URL, err)
	}
	return doc.Cluster, nil
}

func (h HTTP) FetchInitialAlerts(ctx context.Context) ([]alerts.Event, error) {
	doc, err := h.fetch(ctx)
	if err != nil {
		return nil, err
	}
	for i, ev := range doc.Alerts {
		if !ev.Severity.Valid() {
			return nil, fmt.Errorf("%w: %s: alert %d has invalid severity %q", ErrUnavailable, h.URL, i, ev.Severity)
		}
	}
	return doc.Alerts, nil
}
