package orchestrator

// Stage is a step of the viewer loading chain.
type Stage int

const (
	StageInit Stage = iota
	StageSessionCreated
	StageSceneLoaded
	StageDeploymentLoaded
	StageSimulationStarted

	// StageDone ends a chain shortened by feature flags.
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageSessionCreated:
		return "session_created"
	case StageSceneLoaded:
		return "scene_loaded"
	case StageDeploymentLoaded:
		return "deployment_loaded"
	case StageSimulationStarted:
		return "simulation_started"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further stage follows s.
func (s Stage) Terminal() bool {
	switch s {
	case StageSimulationStarted, StageDone, StageFailed:
		return true
	default:
		return false
	}
}

// SceneReady reports whether the scene mesh was loaded when the viewer status
// reports the named stage.
func SceneReady(stage string) bool {
	switch stage {
	case StageSceneLoaded.String(),
		StageDeploymentLoaded.String(),
		StageSimulationStarted.String(),
		StageDone.String():
		return true
	default:
		return false
	}
}
