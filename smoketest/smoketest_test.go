package smoketest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/radiomap/viewer/models"
	"github.com/radiomap/viewer/render"
	vwebsocket "github.com/radiomap/viewer/websocket"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func newTestViewer(t *testing.T, ctx context.Context, codec vwebsocket.Codec) *httptest.Server {
	viewer := models.NewViewerContext(models.NewCamera(
		models.DefaultFov,
		models.DefaultAspect,
		models.DefaultNear,
		models.DefaultFar,
	))

	mesh, err := models.NewMesh("triangle",
		[][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		[][]int64{{0, 1, 2}},
		[][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	)
	require.NoError(t, err)
	viewer.Scene.Add(mesh)
	viewer.SetStatus("scene_loaded", nil)

	loop := render.NewLoop(viewer, time.Millisecond)
	go loop.Run(ctx)

	var mux http.ServeMux
	mux.Handle("/viewer", websocket.Server{
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			h := &vwebsocket.ViewerHandler{
				Viewer: viewer,
				Frames: loop,
				Codec:  codec,
			}
			defer h.Close()

			vwebsocket.Handle(ctx, conn, h)
		},
	})

	server := httptest.NewServer(&mux)
	t.Cleanup(server.Close)
	return server
}

func TestRun(t *testing.T) {
	t.Run("json frames", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		server := newTestViewer(t, ctx, vwebsocket.JSONCodec{})

		res, err := Run(ctx, server.URL, "smoketest")
		require.NoError(t, err)
		require.Equal(t, server.URL, res.Endpoint)
		require.Equal(t, vwebsocket.CodecJSON, res.Codec)
		require.Equal(t, "scene_loaded", res.Stage)
		require.Equal(t, 1, res.Objects)
		require.NotZero(t, res.Bytes)
		require.Greater(t, res.LatencyMs, float64(0))
	})

	t.Run("proto frames", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		server := newTestViewer(t, ctx, vwebsocket.ProtoCodec{})

		res, err := Run(ctx, server.URL, "")
		require.NoError(t, err)
		require.Equal(t, vwebsocket.CodecProto, res.Codec)
		require.Empty(t, res.Stage)
		require.NotZero(t, res.Bytes)
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		_, err := Run(context.Background(), "localhost:8080", "")
		require.Error(t, err)

		_, err = Run(context.Background(), "ftp://localhost:8080", "")
		require.Error(t, err)
	})

	t.Run("unreachable viewer", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()

		_, err := Run(ctx, server.URL, "")
		require.Error(t, err)
	})
}

func TestViewerURL(t *testing.T) {
	tests := []struct {
		endpoint string
		expected string
	}{
		{endpoint: "http://localhost:8080", expected: "ws://localhost:8080/viewer"},
		{endpoint: "https://viewer.example.com/", expected: "wss://viewer.example.com/viewer"},
		{endpoint: "ws://localhost/app", expected: "ws://localhost/app/viewer"},
	}

	for _, test := range tests {
		t.Run(test.endpoint, func(t *testing.T) {
			u, err := viewerURL(test.endpoint)
			require.NoError(t, err)
			require.Equal(t, test.expected, u)
		})
	}
}

func TestRequestTimeout(t *testing.T) {
	tests := []struct {
		timeout  string
		expected time.Duration
		err      bool
	}{
		{timeout: "", expected: DefaultTimeout},
		{timeout: "500ms", expected: 500 * time.Millisecond},
		{timeout: "2s", expected: 2 * time.Second},
		{timeout: "1m30s", expected: 90 * time.Second},
		{timeout: "0s", err: true},
		{timeout: "-1s", err: true},
		{timeout: "10", err: true},
		{timeout: "soon", err: true},
	}

	for _, test := range tests {
		t.Run(test.timeout, func(t *testing.T) {
			d, err := Request{Timeout: test.timeout}.timeout()
			if test.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.expected, d)
		})
	}
}

func TestHandleSmokeTest(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	server := newTestViewer(t, ctx, vwebsocket.JSONCodec{})

	t.Run("default endpoint", func(t *testing.T) {
		h := HandleSmokeTest(ctx, Options{Endpoint: server.URL})

		req := httptest.NewRequest(http.MethodPost, "/smoketest", nil)
		w := httptest.NewRecorder()
		h(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var res Result
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.Equal(t, server.URL, res.Endpoint)
		require.Equal(t, "scene_loaded", res.Stage)
		require.Empty(t, res.Error)
	})

	t.Run("requested endpoint fails", func(t *testing.T) {
		h := HandleSmokeTest(ctx, Options{Endpoint: server.URL})

		body, err := json.Marshal(Request{Endpoint: "ftp://nowhere", Timeout: "1s"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/smoketest", bytes.NewReader(body))
		w := httptest.NewRecorder()
		h(w, req)
		require.Equal(t, http.StatusBadGateway, w.Code)

		var res Result
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.NotEmpty(t, res.Error)
	})

	t.Run("bad request", func(t *testing.T) {
		h := HandleSmokeTest(ctx, Options{Endpoint: server.URL})

		req := httptest.NewRequest(http.MethodPost, "/smoketest", bytes.NewReader([]byte("{")))
		w := httptest.NewRecorder()
		h(w, req)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid timeout", func(t *testing.T) {
		h := HandleSmokeTest(ctx, Options{Endpoint: server.URL})

		for _, body := range []string{
			`{"timeout": "1000000000"}`,
			`{"timeout": "-1s"}`,
			`{"timeout": 1000000000}`,
		} {
			req := httptest.NewRequest(http.MethodPost, "/smoketest", strings.NewReader(body))
			w := httptest.NewRecorder()
			h(w, req)
			require.Equal(t, http.StatusBadRequest, w.Code, body)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		h := HandleSmokeTest(ctx, Options{Endpoint: server.URL})

		req := httptest.NewRequest(http.MethodGet, "/smoketest", nil)
		w := httptest.NewRecorder()
		h(w, req)
		require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}
