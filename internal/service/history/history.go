// Package history talks to the proctoring server's REST endpoints, which
// hold the authoritative list of flagged snapshots.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"proctorfeed/internal/config"
	"proctorfeed/internal/model"
)

var ErrRequestFailed = errors.New("history request failed")

const maxSnapshotBytes = 16 << 20

// Client reads and deletes snapshot alerts on the server.
type Client struct {
	baseURL      string
	historyPath  string
	snapshotPath string
	http         *http.Client
}

// NewClient builds a client from the configuration. A nil httpClient uses
// one with cfg.RequestTimeout.
func NewClient(cfg *config.Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.ServerURL, "/"),
		historyPath:  cfg.HistoryPath,
		snapshotPath: strings.TrimRight(cfg.SnapshotPath, "/"),
		http:         httpClient,
	}
}

// List returns the server's alerts ordered oldest first.
func (c *Client) List(ctx context.Context) ([]model.SnapshotAlert, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.historyPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: list status=%d", ErrRequestFailed, resp.StatusCode)
	}

	var alerts []model.SnapshotAlert
	if err := json.NewDecoder(resp.Body).Decode(&alerts); err != nil {
		return nil, fmt.Errorf("%w: decode history: %v", ErrRequestFailed, err)
	}

	for i := range alerts {
		normalize(&alerts[i])
	}
	sortByEpoch(alerts)
	return alerts, nil
}

// Delete removes a snapshot on the server. A missing identifier counts as deleted.
func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.SnapshotURL(id), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return nil
	}
	return fmt.Errorf("%w: delete %s status=%d", ErrRequestFailed, id, resp.StatusCode)
}

// Snapshot downloads the raw JPEG of a snapshot.
func (c *Client) Snapshot(ctx context.Context, id string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SnapshotURL(id), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/jpeg")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: snapshot %s status=%d", ErrRequestFailed, id, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
}

// SnapshotURL is the absolute locator of a snapshot on the server.
func (c *Client) SnapshotURL(id string) string {
	return c.baseURL + c.snapshotPath + "/" + url.PathEscape(id)
}

// Resolve turns a possibly relative locator into an absolute URL.
func (c *Client) Resolve(locator string) string {
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return locator
	}
	if !strings.HasPrefix(locator, "/") {
		locator = "/" + locator
	}
	return c.baseURL + locator
}

// normalize fills in fields older servers leave out.
func normalize(a *model.SnapshotAlert) {
	if a.ID == "" {
		a.ID = model.IDFromLocator(a.URL)
	}
	if a.Epoch == 0 && a.DisplayTime != "" {
		if t, err := time.ParseInLocation(model.DisplayLayout, a.DisplayTime, time.Local); err == nil {
			a.Epoch = t.UnixMilli()
		}
	}
	if a.DisplayTime == "" && a.Epoch != 0 {
		a.DisplayTime = time.UnixMilli(a.Epoch).Format(model.DisplayLayout)
	}
}

func sortByEpoch(alerts []model.SnapshotAlert) {
	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].Epoch < alerts[j].Epoch })
}
