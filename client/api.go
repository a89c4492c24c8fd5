package client

import (
	"net/url"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/radiomap/viewer/models"
	"github.com/segmentio/encoding/json"
)

// SessionID is the opaque session identifier returned by the simulation
// service. The service may encode it as a JSON string or number.
type SessionID string

func (id *SessionID) UnmarshalJSON(b []byte) error {
	if len(b) != 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = SessionID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("session id is neither a string nor a number").
			WithType(ErrTypeMalformedResponse).
			Wrap(err)
	}
	*id = SessionID(n.String())
	return nil
}

type createSessionIn struct {
	SceneID int `json:"scene_id"`
}

type createSessionOut struct {
	ID *SessionID `json:"id"`
}

type getSessionOut struct {
	Scene *Scene `json:"scene"`
}

// Scene is the scene description of a session.
type Scene struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Geometry    *SceneGeometry `json:"geometry"`
}

// SceneGeometry is an indexed triangle mesh with per-vertex colors.
type SceneGeometry struct {
	Vertices [][]float64 `json:"vertices"`
	Faces    [][]int64   `json:"faces"`
	Colors   [][]float64 `json:"colors"`
}

// Deployment describes the radio devices placed in a scene.
type Deployment struct {
	BaseStations   []BaseStation   `json:"base_stations"   yaml:"base_stations"   toml:"base_stations"`
	UserEquipments []UserEquipment `json:"user_equipments" yaml:"user_equipments" toml:"user_equipments"`
}

type BaseStation struct {
	ID       int        `json:"id"       yaml:"id"       toml:"id"`
	Location [3]float64 `json:"location" yaml:"location" toml:"location"`
	Name     string     `json:"name"     yaml:"name"     toml:"name"`
}

type UserEquipment struct {
	ID       int        `json:"id"       yaml:"id"       toml:"id"`
	Location [3]float64 `json:"location" yaml:"location" toml:"location"`
	Name     string     `json:"name"     yaml:"name"     toml:"name"`
	Type     string     `json:"type"     yaml:"type"     toml:"type"`
}

// DefaultDeployment returns a single gNodeB and a single fixed nrUE.
func DefaultDeployment() Deployment {
	return Deployment{
		BaseStations: []BaseStation{
			{
				ID:       1,
				Location: [3]float64{0, 100, 20},
				Name:     "Example gNodeB",
			},
		},
		UserEquipments: []UserEquipment{
			{
				ID:       1,
				Location: [3]float64{80, 100, 1.5},
				Name:     "Example nrUE",
				Type:     "fixed",
			},
		},
	}
}

type postDeploymentOut struct {
	RenderedDeployment *RenderedDeployment `json:"rendered_deployment"`
}

// RenderedDeployment is the point cloud representation of a deployment.
type RenderedDeployment struct {
	Points [][]float64 `json:"points"`
	Colors [][]float64 `json:"colors"`
	Radius float64     `json:"radius"`

	// Sprite is a 128x128 RGBA float texture. It is kept opaque since points
	// are drawn without texture.
	Sprite json.RawMessage `json:"sprite,omitempty"`
}

type startOut struct {
	Path *Path `json:"path"`
}

// Path is the simulated propagation path as a list of [start, end] segments.
type Path struct {
	Segments [][][]float64 `json:"segments"`
	Color    models.Color  `json:"color"`
	Width    float64       `json:"width"`
}

func sessionPath(id string, suffix string) string {
	return "/session/" + url.PathEscape(id) + suffix
}
