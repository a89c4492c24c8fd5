// Package orchestrator loads a viewer scene from the simulation service.
//
// Loading is a chain of stages where each one starts only once the previous
// one succeeded: a session is created, the scene mesh is fetched and framed,
// the device deployment is posted and the simulation is started. The first
// failure stops the chain and is reported in the viewer status.
package orchestrator

import (
	"context"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/radiomap/viewer/client"
	"github.com/radiomap/viewer/featureflag"
	"github.com/radiomap/viewer/framing"
	"github.com/radiomap/viewer/models"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	ErrTypeUnknownStage = "unknown_stage"

	// DefaultSceneID is the scene requested when none is configured.
	DefaultSceneID = 1

	meshName       = "scene"
	deploymentName = "deployment"
	pathName       = "path"
)

// API is the simulation service.
type API interface {
	CreateSession(ctx context.Context, sceneID int) (string, error)
	GetScene(ctx context.Context, sessionID string) (client.Scene, error)
	PostDeployment(ctx context.Context, sessionID string, d client.Deployment) (client.RenderedDeployment, error)
	StartSimulation(ctx context.Context, sessionID string) (client.Path, error)
}

// Framer points the camera at the bounding box of the first scene mesh.
type Framer func(cam *models.Camera, ctl *models.Controls, box r3.Box) error

// Orchestrator runs the loading chain of a viewer.
type Orchestrator struct {
	API    API
	Viewer *models.ViewerContext

	// The scene requested to the simulation service. Defaults to
	// DefaultSceneID.
	SceneID int

	// The devices placed in the scene. Defaults to client.DefaultDeployment().
	Deployment *client.Deployment

	// The options used by the default Framer.
	FitOptions framing.Options

	// Overrides the framing of the first scene mesh. Defaults to
	// framing.FrameFirstMesh.
	Framer Framer

	FeatureFlags featureflag.FeatureFlag
}

// Run runs the loading chain until a terminal stage is reached. The returned
// error is the one that stopped the chain. Run does not retry.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.init()

	stage := StageInit
	o.Viewer.SetStatus(stage.String(), nil)

	for !stage.Terminal() {
		if err := ctx.Err(); err != nil {
			return o.fail(stage, err)
		}

		next, err := instrumentStep(stage, func() (Stage, error) {
			return o.step(ctx, stage)
		})
		if err != nil {
			return o.fail(stage, err)
		}

		logs.WithTag("session_id", o.Viewer.SessionID()).
			WithTag("from", stage.String()).
			WithTag("to", next.String()).
			Info("viewer stage completed")

		o.Viewer.SetStatus(next.String(), nil)
		stage = next
	}
	return nil
}

func (o *Orchestrator) init() {
	if o.SceneID == 0 {
		o.SceneID = DefaultSceneID
	}

	if o.Deployment == nil {
		d := client.DefaultDeployment()
		o.Deployment = &d
	}

	if o.FitOptions.FitOffset == 0 {
		o.FitOptions.FitOffset = framing.DefaultFitOffset
	}

	o.FeatureFlags.IfSet(featureflag.FlagLegacyFitFormula, func() {
		o.FitOptions.Formula = framing.FormulaLegacy
	})

	if o.Framer == nil {
		o.Framer = o.frameFirstMesh
	}
}

// step runs the work that leaves stage and returns the stage reached.
func (o *Orchestrator) step(ctx context.Context, stage Stage) (Stage, error) {
	switch stage {
	case StageInit:
		return o.createSession(ctx)

	case StageSessionCreated:
		return o.loadScene(ctx)

	case StageSceneLoaded:
		if o.FeatureFlags.IsSet(featureflag.FlagDisableDeployment) {
			return StageDone, nil
		}
		return o.loadDeployment(ctx)

	case StageDeploymentLoaded:
		if o.FeatureFlags.IsSet(featureflag.FlagDisableSimulation) {
			return StageDone, nil
		}
		return o.startSimulation(ctx)

	default:
		return StageFailed, errors.New("no transition from stage").
			WithType(ErrTypeUnknownStage).
			WithTag("stage", stage.String())
	}
}

func (o *Orchestrator) createSession(ctx context.Context) (Stage, error) {
	id, err := o.API.CreateSession(ctx, o.SceneID)
	if err != nil {
		return StageFailed, errors.New("creating session failed").
			WithTag("scene_id", o.SceneID).
			Wrap(err)
	}

	o.Viewer.SetSessionID(id)
	return StageSessionCreated, nil
}

func (o *Orchestrator) loadScene(ctx context.Context) (Stage, error) {
	sessionID := o.Viewer.SessionID()

	scene, err := o.API.GetScene(ctx, sessionID)
	if err != nil {
		return StageFailed, errors.New("getting scene failed").
			WithTag("session_id", sessionID).
			Wrap(err)
	}

	logs.WithTag("session_id", sessionID).
		WithTag("name", scene.Name).
		WithTag("description", scene.Description).
		Info("scene received")

	mesh, err := models.NewMesh(meshName, scene.Geometry.Vertices, scene.Geometry.Faces, scene.Geometry.Colors)
	if err != nil {
		return StageFailed, errors.New("building scene mesh failed").
			WithTag("session_id", sessionID).
			Wrap(err)
	}
	o.Viewer.Scene.Add(mesh)

	box, err := framing.ObjectBounds(mesh)
	if err != nil {
		logs.WithTag("session_id", sessionID).
			Warn(errors.New("scene mesh is not framed").Wrap(err))
		return StageSceneLoaded, nil
	}

	if err := o.Viewer.UpdateCamera(func(cam *models.Camera, ctl *models.Controls) error {
		return o.Framer(cam, ctl, box)
	}); err != nil {
		logs.WithTag("session_id", sessionID).
			Warn(errors.New("framing scene mesh failed").Wrap(err))
	}
	return StageSceneLoaded, nil
}

func (o *Orchestrator) loadDeployment(ctx context.Context) (Stage, error) {
	sessionID := o.Viewer.SessionID()

	rendered, err := o.API.PostDeployment(ctx, sessionID, *o.Deployment)
	if err != nil {
		return StageFailed, errors.New("posting deployment failed").
			WithTag("session_id", sessionID).
			Wrap(err)
	}

	points, err := models.NewPointCloud(deploymentName, rendered.Points, rendered.Colors, rendered.Radius)
	if err != nil {
		return StageFailed, errors.New("building deployment points failed").
			WithTag("session_id", sessionID).
			Wrap(err)
	}
	o.Viewer.Scene.Add(points)

	return StageDeploymentLoaded, nil
}

func (o *Orchestrator) startSimulation(ctx context.Context) (Stage, error) {
	sessionID := o.Viewer.SessionID()

	path, err := o.API.StartSimulation(ctx, sessionID)
	if err != nil {
		return StageFailed, errors.New("starting simulation failed").
			WithTag("session_id", sessionID).
			Wrap(err)
	}

	lines, err := models.NewLineSet(pathName, path.Segments, path.Color, path.Width)
	if err != nil {
		return StageFailed, errors.New("building path lines failed").
			WithTag("session_id", sessionID).
			Wrap(err)
	}
	o.Viewer.Scene.Add(lines)

	return StageSimulationStarted, nil
}

func (o *Orchestrator) frameFirstMesh(cam *models.Camera, ctl *models.Controls, box r3.Box) error {
	distance, err := framing.FrameFirstMesh(cam, ctl, box, o.FitOptions)
	if err != nil {
		return err
	}

	logs.WithTag("distance", distance).
		WithTag("formula", o.FitOptions.Formula.String()).
		Debug("scene mesh framed")
	return nil
}

func (o *Orchestrator) fail(stage Stage, err error) error {
	err = errors.New("failed to load scene").
		WithTag("stage", stage.String()).
		WithTag("session_id", o.Viewer.SessionID()).
		Wrap(err)

	logs.WithTag("scene_id", o.SceneID).Error(err)
	o.Viewer.SetStatus(StageFailed.String(), err)
	return err
}
