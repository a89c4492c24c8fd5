package models

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindLabel  = "kind"
	stageLabel = "stage"
)

var (
	sceneObjectCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scene_object_count",
		Help: "The number of objects in the scene.",
	}, []string{kindLabel})

	sceneVertexCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scene_vertex_count",
		Help: "The number of vertices or points in the scene.",
	}, []string{kindLabel})

	viewerStage = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "viewer_stage",
		Help: "Set to 1 for the current viewer stage.",
	}, []string{stageLabel})
)

func instrumentSceneObject(o *Object) {
	labels := prometheus.Labels{kindLabel: string(o.Kind)}

	sceneObjectCount.With(labels).Inc()
	sceneVertexCount.With(labels).Add(float64(o.VertexCount()))
}

func instrumentStage(previous, current string) {
	if previous != "" {
		viewerStage.With(prometheus.Labels{stageLabel: previous}).Set(0)
	}
	viewerStage.With(prometheus.Labels{stageLabel: current}).Set(1)
}
