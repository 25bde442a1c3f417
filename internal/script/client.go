// Package script implements the client for the remote script endpoint that
// serves calendar events and slideshow photos as JSON.
package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	appLog "calpane/internal/log"
	"calpane/internal/model"
	"calpane/internal/view"
)

// DefaultTimeout bounds a single round trip to the script endpoint.
const DefaultTimeout = 12 * time.Second

// ErrorKind classifies client failures so the UI can phrase them.
type ErrorKind string

const (
	// KindConfigMissing means no endpoint or token is configured; fetching
	// cannot even be attempted.
	KindConfigMissing ErrorKind = "config_missing"
	// KindTransport covers network failures, timeouts, non-2xx statuses and
	// undecodable response bodies.
	KindTransport ErrorKind = "transport"
	// KindAPI means the backend answered but signaled failure (ok=false).
	KindAPI ErrorKind = "api"
)

// Error is a classified client failure.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the ErrorKind of err if it is a script error, else
// KindTransport as the generic failure class.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindTransport
}

// envelope is the wire response shape shared by all routes.
type envelope struct {
	OK     bool             `json:"ok"`
	Error  string           `json:"error,omitempty"`
	Events []model.RawEvent `json:"events,omitempty"`
	Photos []string         `json:"photos,omitempty"`
}

// Client talks to a single script endpoint with an opaque token.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// New builds a Client. Endpoint and token may be empty; fetch calls then
// fail with KindConfigMissing so the caller can show a setup hint instead of
// a network error.
func New(endpoint, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: strings.TrimSpace(endpoint),
		token:    strings.TrimSpace(token),
		http:     &http.Client{Timeout: timeout},
	}
}

// Configured reports whether both endpoint and token are set.
func (c *Client) Configured() bool {
	return c.endpoint != "" && c.token != ""
}

// FetchRange returns the raw events for the half-open day range
// [start, end). The bounds are sent as local day keys; the backend resolves
// them against its own calendar.
func (c *Client) FetchRange(ctx context.Context, start, end time.Time) ([]model.RawEvent, error) {
	q := url.Values{}
	q.Set("route", "range")
	q.Set("start", view.DayKey(start))
	q.Set("end", view.DayKey(end))

	env, err := c.call(ctx, q)
	if err != nil {
		return nil, err
	}
	return env.Events, nil
}

// FetchPhotos returns the slideshow photo URLs.
func (c *Client) FetchPhotos(ctx context.Context) ([]string, error) {
	q := url.Values{}
	q.Set("route", "photos")

	env, err := c.call(ctx, q)
	if err != nil {
		return nil, err
	}
	return env.Photos, nil
}

func (c *Client) call(ctx context.Context, q url.Values) (*envelope, error) {
	if !c.Configured() {
		return nil, &Error{
			Kind: KindConfigMissing,
			Msg:  "missing config: set endpoint and token",
		}
	}

	q.Set("token", c.token)
	sep := "?"
	if strings.Contains(c.endpoint, "?") {
		sep = "&"
	}
	reqURL := c.endpoint + sep + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Msg: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	appLog.Debug("script request", "route", q.Get("route"), "url", redactToken(reqURL))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Msg: "script request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Kind: KindTransport,
			Msg:  fmt.Sprintf("script endpoint returned %s", resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Msg: "read response", Err: err}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &Error{Kind: KindTransport, Msg: "decode response", Err: err}
	}

	if !env.OK {
		msg := env.Error
		if msg == "" {
			msg = "API error"
		}
		return nil, &Error{Kind: KindAPI, Msg: msg}
	}

	return &env, nil
}

// redactToken strips the token value from a request URL before logging.
func redactToken(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return "(unparseable url)"
	}
	q := parsed.Query()
	if q.Has("token") {
		q.Set("token", "…")
		parsed.RawQuery = q.Encode()
	}
	return parsed.String()
}
