// Package client implements the HTTP client of the remote simulation service
// that computes scenes, device deployments and propagation paths.
package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
)

const (
	ErrTypeStatus            = "status"
	ErrTypeTransport         = "transport"
	ErrTypeMalformedResponse = "malformed_response"

	DefaultEndpoint = "http://localhost:8001"

	routeCreateSession  = "create_session"
	routeGetSession     = "get_session"
	routePostDeployment = "post_deployment"
	routeStart          = "start"
)

// Client is a simulation service client.
type Client struct {
	endpoint  string
	transport http.RoundTripper
	timeout   time.Duration
	encode    func(any) ([]byte, error)
	decode    func([]byte, any) error

	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEndpoint sets the simulation service origin.
func WithEndpoint(v string) ClientOption {
	return func(c *Client) {
		c.endpoint = strings.TrimSuffix(v, "/")
	}
}

// WithTransport sets the HTTP transport used to issue requests.
func WithTransport(v http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.transport = v
	}
}

// WithTimeout sets a timeout on every request. Zero means no timeout.
func WithTimeout(v time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = v
	}
}

// WithEncoder sets the function used to encode request bodies.
func WithEncoder(v func(any) ([]byte, error)) ClientOption {
	return func(c *Client) {
		c.encode = v
	}
}

// WithDecoder sets the function used to decode response bodies.
func WithDecoder(v func([]byte, any) error) ClientOption {
	return func(c *Client) {
		c.decode = v
	}
}

func NewClient(options ...ClientOption) *Client {
	c := &Client{
		endpoint:  DefaultEndpoint,
		transport: http.DefaultTransport,
		encode:    json.Marshal,
		decode:    json.Unmarshal,
	}

	for _, o := range options {
		o(c)
	}

	c.httpClient = &http.Client{
		Transport: c.transport,
		Timeout:   c.timeout,
	}
	return c
}

// CreateSession creates a session for the given scene and returns its id.
func (c *Client) CreateSession(ctx context.Context, sceneID int) (string, error) {
	var out createSessionOut
	if err := c.do(ctx, routeCreateSession, http.MethodPost, "/session/", createSessionIn{SceneID: sceneID}, &out); err != nil {
		return "", err
	}

	if out.ID == nil || *out.ID == "" {
		return "", errors.New("session id is missing").
			WithType(ErrTypeMalformedResponse).
			WithTag("route", routeCreateSession)
	}
	return string(*out.ID), nil
}

// GetScene returns the scene description of a session.
func (c *Client) GetScene(ctx context.Context, sessionID string) (Scene, error) {
	var out getSessionOut
	if err := c.do(ctx, routeGetSession, http.MethodGet, sessionPath(sessionID, ""), nil, &out); err != nil {
		return Scene{}, err
	}

	switch {
	case out.Scene == nil:
		return Scene{}, malformed(routeGetSession, "scene")

	case out.Scene.Geometry == nil:
		return Scene{}, malformed(routeGetSession, "scene.geometry")

	case out.Scene.Geometry.Vertices == nil:
		return Scene{}, malformed(routeGetSession, "scene.geometry.vertices")

	case out.Scene.Geometry.Faces == nil:
		return Scene{}, malformed(routeGetSession, "scene.geometry.faces")

	case out.Scene.Geometry.Colors == nil:
		return Scene{}, malformed(routeGetSession, "scene.geometry.colors")
	}
	return *out.Scene, nil
}

// PostDeployment places radio devices in the session scene and returns their
// rendered representation.
func (c *Client) PostDeployment(ctx context.Context, sessionID string, d Deployment) (RenderedDeployment, error) {
	var out postDeploymentOut
	if err := c.do(ctx, routePostDeployment, http.MethodPost, sessionPath(sessionID, "/deployment/"), d, &out); err != nil {
		return RenderedDeployment{}, err
	}

	switch {
	case out.RenderedDeployment == nil:
		return RenderedDeployment{}, malformed(routePostDeployment, "rendered_deployment")

	case out.RenderedDeployment.Points == nil:
		return RenderedDeployment{}, malformed(routePostDeployment, "rendered_deployment.points")

	case out.RenderedDeployment.Colors == nil:
		return RenderedDeployment{}, malformed(routePostDeployment, "rendered_deployment.colors")
	}
	return *out.RenderedDeployment, nil
}

// StartSimulation starts the session simulation and returns the computed
// path.
func (c *Client) StartSimulation(ctx context.Context, sessionID string) (Path, error) {
	var out startOut
	if err := c.do(ctx, routeStart, http.MethodPost, sessionPath(sessionID, "/start/"), nil, &out); err != nil {
		return Path{}, err
	}

	switch {
	case out.Path == nil:
		return Path{}, malformed(routeStart, "path")

	case out.Path.Segments == nil:
		return Path{}, malformed(routeStart, "path.segments")
	}
	return *out.Path, nil
}

func (c *Client) do(ctx context.Context, route, method, path string, in, out any) error {
	return instrumentRequest(route, func() error {
		var body io.Reader
		if in != nil {
			b, err := c.encode(in)
			if err != nil {
				return errors.New("encoding request body failed").
					WithTag("route", route).
					Wrap(err)
			}
			body = bytes.NewReader(b)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
		if err != nil {
			return errors.New("creating request failed").
				WithTag("route", route).
				Wrap(err)
		}
		req.Header.Set("Content-Type", "application/json")

		res, err := c.httpClient.Do(req)
		if err != nil {
			return errors.New("request failed").
				WithType(ErrTypeTransport).
				WithTag("route", route).
				WithTag("url", req.URL.String()).
				Wrap(err)
		}
		defer res.Body.Close()

		if res.StatusCode < 200 || res.StatusCode >= 300 {
			io.Copy(io.Discard, res.Body)
			return errors.New("network response was not ok").
				WithType(ErrTypeStatus).
				WithTag("route", route).
				WithTag("url", req.URL.String()).
				WithTag("status_code", res.StatusCode)
		}

		b, err := io.ReadAll(res.Body)
		if err != nil {
			return errors.New("reading response body failed").
				WithType(ErrTypeTransport).
				WithTag("route", route).
				Wrap(err)
		}

		if err := c.decode(b, out); err != nil {
			return errors.New("decoding response body failed").
				WithType(ErrTypeMalformedResponse).
				WithTag("route", route).
				Wrap(err)
		}
		return nil
	})
}

func malformed(route, field string) error {
	return errors.New("response field is missing").
		WithType(ErrTypeMalformedResponse).
		WithTag("route", route).
		WithTag("field", field)
}
