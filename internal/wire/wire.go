// Package wire encodes and decodes the event envelope exchanged with the proctoring server.
package wire

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"proctorfeed/internal/dispatch"
	"proctorfeed/internal/dto"
)

const (
	EventFrame                = "frame"
	EventResponseFrame        = "response_frame"
	EventCheatingNotification = "cheating_notification"
	EventConnected            = "connected"
)

const jpegDataURLPrefix = "data:image/jpeg;base64,"

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrBadDataURL   = errors.New("malformed data url")
)

// Envelope is one websocket text message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode wraps payload in an envelope for the named event.
func Encode(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// Decode parses an inbound message into a dispatch event.
// now supplies the receipt time for alerts that carry no timestamp.
func Decode(raw []byte, now func() time.Time) (dispatch.Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}

	switch env.Event {
	case EventResponseFrame:
		var p dto.ResponseFrame
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Event, err)
		}
		return dispatch.RenderFrame{Image: p.Image, Cheating: p.Cheating}, nil

	case EventCheatingNotification:
		var p dto.CheatingNotification
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Event, err)
		}
		if p.URL == "" {
			return nil, fmt.Errorf("%s without url", env.Event)
		}
		ts, ok := parseTimestamp(p.Timestamp)
		if !ok {
			ts = now()
		}
		return dispatch.AlertRaised{ID: p.ID, Message: p.Message, URL: p.URL, Timestamp: ts}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
}

// maxEpochMillis is the last millisecond of year 9999.
var maxEpochMillis = float64(time.Date(9999, 12, 31, 23, 59, 59, 999e6, time.UTC).UnixMilli())

// parseTimestamp accepts an RFC 3339 string or a number of epoch
// milliseconds. Numbers below 1e11 are taken as seconds. Numbers past year
// 9999 are rejected.
func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, false
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, false
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || f <= 0 {
		return time.Time{}, false
	}
	if f < 1e11 {
		f *= 1000
	}
	if f > maxEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(f)), true
}

// JPEGDataURL wraps JPEG bytes as a data URL.
func JPEGDataURL(jpeg []byte) string {
	return jpegDataURLPrefix + base64.StdEncoding.EncodeToString(jpeg)
}

// DecodeDataURL returns the bytes and media type carried by a base64 data URL.
func DecodeDataURL(url string) ([]byte, string, error) {
	if !strings.HasPrefix(url, "data:") {
		return nil, "", ErrBadDataURL
	}
	header, payload, ok := strings.Cut(url[len("data:"):], ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, "", ErrBadDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	return data, strings.TrimSuffix(header, ";base64"), nil
}
