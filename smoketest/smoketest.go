// Package smoketest checks that a viewer streams its scene to browsers.
package smoketest

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	httpcmn "github.com/aukilabs/hagall-common/http"
	vwebsocket "github.com/radiomap/viewer/websocket"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	DefaultTimeout = time.Second * 10

	maxRequestBodySize = 1024
)

// Request is the body of a smoke test request.
type Request struct {
	// The viewer endpoint. Defaults to the endpoint of the running viewer.
	Endpoint string `json:"endpoint,omitempty"`

	// How long to wait for the first frame, as a duration string such as
	// "500ms" or "5s". Defaults to DefaultTimeout.
	Timeout string `json:"timeout,omitempty"`
}

func (r Request) timeout() (time.Duration, error) {
	if r.Timeout == "" {
		return DefaultTimeout, nil
	}

	d, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return 0, errors.New("parsing timeout failed").
			WithTag("timeout", r.Timeout).
			Wrap(err)
	}
	if d <= 0 {
		return 0, errors.New("timeout is not positive").
			WithTag("timeout", r.Timeout)
	}
	return d, nil
}

// Result describes the first frame received from a viewer.
type Result struct {
	Endpoint  string  `json:"endpoint"`
	Codec     string  `json:"codec"`
	LatencyMs float64 `json:"latency_ms"`
	Bytes     int     `json:"bytes"`

	// Only set for JSON frames.
	Stage   string `json:"stage,omitempty"`
	Objects int    `json:"objects,omitempty"`

	Error string `json:"error,omitempty"`
}

type Options struct {
	// The endpoint used when a request does not specify one.
	Endpoint  string
	UserAgent string
}

// HandleSmokeTest connects to a viewer, waits for its first frame and
// responds with the result.
func HandleSmokeTest(ctx context.Context, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		b, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
		if err != nil {
			httpcmn.InternalServerError(w, errors.New("reading body failed").Wrap(err))
			return
		}

		var req Request
		if len(b) != 0 {
			if err := json.Unmarshal(b, &req); err != nil {
				httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
				return
			}
		}
		if req.Endpoint == "" {
			req.Endpoint = opts.Endpoint
		}
		timeout, err := req.timeout()
		if err != nil {
			httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		res, err := Run(ctx, req.Endpoint, opts.UserAgent)
		if err != nil {
			logs.WithTag("endpoint", req.Endpoint).Warn(err)
			res.Error = err.Error()
		}

		resBody, err := json.Marshal(res)
		if err != nil {
			httpcmn.InternalServerError(w, errors.New("encoding result failed").Wrap(err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if res.Error != "" {
			w.WriteHeader(http.StatusBadGateway)
		}
		w.Write(resBody)
	}
}

// Run connects to the viewer websocket at endpoint and waits for the first
// frame.
func Run(ctx context.Context, endpoint, userAgent string) (Result, error) {
	res := Result{Endpoint: endpoint}

	wsURL, err := viewerURL(endpoint)
	if err != nil {
		return res, err
	}

	config, err := websocket.NewConfig(wsURL, endpoint)
	if err != nil {
		return res, errors.New("creating websocket config failed").Wrap(err)
	}
	if userAgent != "" {
		config.Header.Set("User-Agent", userAgent)
	}

	start := time.Now()
	conn, err := config.DialContext(ctx)
	if err != nil {
		return res, errors.New("dialing viewer failed").
			WithTag("url", wsURL).
			Wrap(err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}

	// Idle clients are disconnected before their first input.
	if err := websocket.JSON.Send(conn, vwebsocket.Input{Type: vwebsocket.InputPing}); err != nil {
		return res, errors.New("sending ping failed").Wrap(err)
	}

	var data []byte
	var payloadType byte
	frameCodec := websocket.Codec{
		Unmarshal: func(b []byte, t byte, v any) error {
			data = b
			payloadType = t
			return nil
		},
	}
	if err := frameCodec.Receive(conn, nil); err != nil {
		return res, errors.New("receiving frame failed").Wrap(err)
	}
	res.LatencyMs = float64(time.Since(start)) / float64(time.Millisecond)
	res.Bytes = len(data)

	if payloadType != websocket.TextFrame {
		res.Codec = vwebsocket.CodecProto
		return res, nil
	}

	res.Codec = vwebsocket.CodecJSON
	var f vwebsocket.Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return res, errors.New("decoding frame failed").Wrap(err)
	}
	if f.State == nil {
		return res, errors.New("first frame has no state").WithTag("seq", f.Seq)
	}
	res.Stage = f.State.Status.Stage
	res.Objects = len(f.Objects)
	return res, nil
}

func viewerURL(endpoint string) (string, error) {
	u, err := url.ParseRequestURI(endpoint)
	if err != nil {
		return "", errors.New("invalid viewer endpoint").
			WithTag("endpoint", endpoint).
			Wrap(err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.New("unsupported viewer endpoint scheme").
			WithTag("endpoint", endpoint)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/viewer"
	return u.String(), nil
}
