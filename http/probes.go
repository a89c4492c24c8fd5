package http

import (
	"net/http"

	"github.com/segmentio/encoding/json"
)

// HandleHealthCheck reports that the process serves requests.
func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
}

// HandleReadyCheck answers 503 until the scene can be drawn.
func HandleReadyCheck(sceneReady func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		if !sceneReady() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// HandleVersion serves the viewer build version as JSON.
func HandleVersion(version string) http.HandlerFunc {
	b, _ := json.Marshal(struct {
		Version string `json:"version"`
	}{
		Version: version,
	})

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(b)
	}
}
