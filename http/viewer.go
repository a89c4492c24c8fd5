package http

import (
	"io"
	"math"
	"net/http"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/radiomap/viewer/models"
	"github.com/segmentio/encoding/json"
)

const maxViewportBodySize = 1024

// StatusResponse is the viewer status served to monitoring and browsers.
type StatusResponse struct {
	SessionID    string    `json:"session_id,omitempty"`
	Stage        string    `json:"stage"`
	Error        string    `json:"error,omitempty"`
	Failed       bool      `json:"failed"`
	UpdatedAt    time.Time `json:"updated_at"`
	Objects      int       `json:"objects"`
	SceneVersion uint64    `json:"scene_version"`
}

func HandleStatus(viewer *models.ViewerContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := viewer.Status()

		b, err := json.Marshal(StatusResponse{
			SessionID:    viewer.SessionID(),
			Stage:        status.Stage,
			Error:        status.Error,
			Failed:       status.Failed(),
			UpdatedAt:    status.UpdatedAt,
			Objects:      viewer.Scene.Len(),
			SceneVersion: viewer.Scene.Version(),
		})
		if err != nil {
			httpcmn.InternalServerError(w, errors.New("encoding status failed").Wrap(err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(b)
	}
}

// ViewportRequest is the size of the area the scene is drawn into.
type ViewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// HandleViewport updates the camera aspect ratio from a viewport size.
func HandleViewport(viewer *models.ViewerContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		b, err := io.ReadAll(io.LimitReader(r.Body, maxViewportBodySize))
		if err != nil {
			httpcmn.InternalServerError(w, errors.New("reading body failed").Wrap(err))
			return
		}

		var req ViewportRequest
		if err := json.Unmarshal(b, &req); err != nil {
			httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
			return
		}

		if !validViewportSide(req.Width) || !validViewportSide(req.Height) {
			httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
			return
		}

		viewer.UpdateCamera(func(cam *models.Camera, _ *models.Controls) error {
			cam.SetAspect(req.Width, req.Height)
			return nil
		})
		w.WriteHeader(http.StatusOK)
	}
}

func validViewportSide(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
