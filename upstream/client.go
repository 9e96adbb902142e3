// Package upstream holds the REST clients for the Medicart services the
// checkout flow depends on: addresses, cart, orders and payments. All
// requests go through the API gateway with the caller's bearer token.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"medicart/session"
)

const requestTimeout = 10 * time.Second

type Client struct {
	base string
	http *http.Client
}

// New builds a client bound to one caller's session; every request carries
// that session's credentials.
func New(baseURL string, sess *session.Session) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   requestTimeout,
			Transport: &authTransport{sess: sess, next: http.DefaultTransport},
		},
	}
}

// authTransport injects the bearer token and a best-effort X-User-Id header
// into every outbound request.
type authTransport struct {
	sess *session.Session
	next http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if tok := t.sess.Token; tok != "" {
		if !strings.HasPrefix(tok, "Bearer ") {
			tok = "Bearer " + tok
		}
		r.Header.Set("Authorization", tok)
	}
	if uid := t.sess.WireUserID(); uid != "" {
		r.Header.Set("X-User-Id", uid)
	}
	return t.next.RoundTrip(r)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upstream %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errorFromResponse(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("upstream %s %s: decode: %w", method, path, err)
	}
	return nil
}

// errorFromResponse surfaces the collaborator's own error message when the
// body carries one, so the user sees it verbatim.
func errorFromResponse(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return &Error{Status: resp.StatusCode, Message: body.Error}
	}
	return &Error{Status: resp.StatusCode}
}
