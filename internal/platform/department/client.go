// Package department talks to the external department micro-service. The
// service owns department data; this side only stores department ids.
package department

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when the department service answers 404.
var ErrNotFound = errors.New("department not found")

// ErrBadResponse is returned when a 2xx body does not carry a usable
// department id.
var ErrBadResponse = errors.New("department service returned an unusable department")

// Department mirrors the remote service's JSON field names.
type Department struct {
	ID   int64  `json:"idDepartamento"`
	Name string `json:"nombreDepartamento"`
}

// StatusError is a non-2xx answer other than 404.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: department service returned %d: %s", e.Method, e.URL, e.Code, e.Body)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) GetDepartment(ctx context.Context, id int64) (*Department, error) {
	var d Department
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/"+strconv.FormatInt(id, 10), nil, &d); err != nil {
		return nil, err
	}
	if d.ID != id {
		return nil, fmt.Errorf("%w: asked for %d, got %d", ErrBadResponse, id, d.ID)
	}
	return &d, nil
}

func (c *Client) CreateDepartment(ctx context.Context, d Department) (*Department, error) {
	var created Department
	if err := c.do(ctx, http.MethodPost, c.baseURL, d, &created); err != nil {
		return nil, err
	}
	if created.ID <= 0 {
		return nil, fmt.Errorf("%w: created department has id %d", ErrBadResponse, created.ID)
	}
	return &created, nil
}

// ListDepartments resolves many ids in one call. Unknown ids are omitted by
// the remote side.
func (c *Client) ListDepartments(ctx context.Context, ids []int64) ([]Department, error) {
	if len(ids) == 0 {
		return []Department{}, nil
	}
	q := url.Values{}
	for _, id := range ids {
		q.Add("ids", strconv.FormatInt(id, 10))
	}

	out := []Department{}
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/medicos-por-departamento?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	for _, d := range out {
		if d.ID <= 0 {
			return nil, fmt.Errorf("%w: listed department has id %d", ErrBadResponse, d.ID)
		}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, target string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, URL: target, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, target, err)
	}
	return nil
}
