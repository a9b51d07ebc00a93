// FILE: internal/client/api/client.go

// Package api is the HTTP client of the repertoire server.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"repertoire/internal/client/display"
	"repertoire/internal/core"
)

// Request timeout; it outlasts the server's long-poll wait
const defaultTimeout = 40 * time.Second

// HealthResponse is the /health payload
type HealthResponse struct {
	Status  string `json:"status"`
	Time    int64  `json:"time"`
	Storage string `json:"storage"`
	Auth    bool   `json:"auth"`
}

// Error is a failed API call
type Error struct {
	Status int
	core.ErrorResponse
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%d %s: %s (%s)", e.Status, e.Code, e.ErrorResponse.Error, e.Details)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.ErrorResponse.Error)
}

type Client struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
	Verbose    bool
	Out        io.Writer
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		Out: os.Stdout,
	}
}

func (c *Client) SetVerbose(v bool) {
	c.Verbose = v
}

// SetBaseURL updates the API base URL for the client
func (c *Client) SetBaseURL(u string) {
	c.BaseURL = strings.TrimRight(u, "/")
}

func (c *Client) SetToken(token string) {
	c.AuthToken = token
}

func (c *Client) printf(format string, args ...any) {
	if c.Out != nil {
		fmt.Fprintf(c.Out, format, args...)
	}
}

func (c *Client) send(method, path string, body any) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		bodyReader = bytes.NewReader(data)
		if c.Verbose {
			var pretty bytes.Buffer
			_ = json.Indent(&pretty, data, "", "  ")
			c.printf("%sRequest Body:%s\n%s\n", display.Cyan(), display.Reset(), pretty.String())
		}
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	if c.Verbose {
		c.printf("%s[API] %s %s%s\n", display.Blue(), method, path, display.Reset())
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	if c.Verbose {
		statusColor := display.Green()
		if resp.StatusCode >= 400 {
			statusColor = display.Red()
		}
		c.printf("%s[%d %s]%s\n", statusColor, resp.StatusCode, http.StatusText(resp.StatusCode), display.Reset())
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, respBody, "", "  "); err == nil {
			c.printf("%sResponse Body:%s\n%s\n", display.Cyan(), display.Reset(), pretty.String())
		} else if len(respBody) > 0 {
			c.printf("%sResponse:%s\n%s\n", display.Cyan(), display.Reset(), string(respBody))
		}
	}

	if resp.StatusCode >= 400 {
		apiErr := &Error{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, &apiErr.ErrorResponse); err != nil {
			apiErr.ErrorResponse.Error = strings.TrimSpace(string(respBody))
		}
		return resp, respBody, apiErr
	}
	return resp, respBody, nil
}

func (c *Client) doRequest(method, path string, body any, result any) error {
	_, respBody, err := c.send(method, path, body)
	if err != nil {
		return err
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

func repertoirePath(side, suffix string, query url.Values) string {
	p := "/api/v1/repertoires/" + url.PathEscape(side) + suffix
	if len(query) > 0 {
		p += "?" + query.Encode()
	}
	return p
}

func fenQuery(fen string) url.Values {
	q := url.Values{}
	if fen != "" {
		q.Set("fen", fen)
	}
	return q
}

// API Methods

func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	err := c.doRequest(http.MethodGet, "/health", nil, &resp)
	return &resp, err
}

func (c *Client) ListRepertoires() ([]core.RepertoireResponse, error) {
	var resp []core.RepertoireResponse
	err := c.doRequest(http.MethodGet, "/api/v1/repertoires", nil, &resp)
	return resp, err
}

func (c *Client) GetRepertoire(side string) (*core.RepertoireResponse, error) {
	var resp core.RepertoireResponse
	err := c.doRequest(http.MethodGet, repertoirePath(side, "", nil), nil, &resp)
	return &resp, err
}

func (c *Client) GetPosition(side, fen string) (*core.PositionResponse, error) {
	var resp core.PositionResponse
	err := c.doRequest(http.MethodGet, repertoirePath(side, "/positions", fenQuery(fen)), nil, &resp)
	return &resp, err
}

func (c *Client) AddMove(side, fen, san string) (*core.AddMoveResponse, error) {
	var resp core.AddMoveResponse
	err := c.doRequest(http.MethodPost, repertoirePath(side, "/moves", nil), core.MoveRequest{FEN: fen, SAN: san}, &resp)
	return &resp, err
}

func (c *Client) DeleteMove(side, fen, san string) (*core.DeleteMoveResponse, error) {
	q := fenQuery(fen)
	q.Set("san", san)
	var resp core.DeleteMoveResponse
	err := c.doRequest(http.MethodDelete, repertoirePath(side, "/moves", q), nil, &resp)
	return &resp, err
}

func (c *Client) Variations(side, fen string) (*core.VariationsResponse, error) {
	var resp core.VariationsResponse
	err := c.doRequest(http.MethodGet, repertoirePath(side, "/variations", fenQuery(fen)), nil, &resp)
	return &resp, err
}

func (c *Client) SetAnnotations(side string, req core.AnnotationRequest) (*core.PositionResponse, error) {
	var resp core.PositionResponse
	err := c.doRequest(http.MethodPut, repertoirePath(side, "/annotations", nil), req, &resp)
	return &resp, err
}

// ExportPGN returns the subtree of fen as PGN text
func (c *Client) ExportPGN(side, fen string) (string, error) {
	_, body, err := c.send(http.MethodGet, repertoirePath(side, "/pgn", fenQuery(fen)), nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) ImportPGN(side, text string) (*core.ImportResponse, error) {
	var resp core.ImportResponse
	err := c.doRequest(http.MethodPost, repertoirePath(side, "/pgn", nil), core.ImportPGNRequest{PGN: text}, &resp)
	return &resp, err
}

func (c *Client) ListTags(side string) (*core.TagsResponse, error) {
	var resp core.TagsResponse
	err := c.doRequest(http.MethodGet, repertoirePath(side, "/tags", nil), nil, &resp)
	return &resp, err
}

// Wait long-polls until the repertoire moves past revision
func (c *Client) Wait(side string, revision uint64) (*core.WaitResponse, error) {
	q := url.Values{}
	q.Set("revision", strconv.FormatUint(revision, 10))
	var resp core.WaitResponse
	err := c.doRequest(http.MethodGet, repertoirePath(side, "/wait", q), nil, &resp)
	return &resp, err
}

func (c *Client) StartSession(req core.SessionRequest) (*core.SessionResponse, error) {
	var resp core.SessionResponse
	err := c.doRequest(http.MethodPost, "/api/v1/training/sessions", req, &resp)
	return &resp, err
}

func (c *Client) RecordTraining(req core.TrainingEventRequest) (*core.TrainingEventResponse, error) {
	var resp core.TrainingEventResponse
	err := c.doRequest(http.MethodPost, "/api/v1/training/events", req, &resp)
	return &resp, err
}

func (c *Client) Login(username, password string) (*core.AuthResponse, error) {
	var resp core.AuthResponse
	err := c.doRequest(http.MethodPost, "/api/v1/auth/login", core.LoginRequest{Username: username, Password: password}, &resp)
	return &resp, err
}
