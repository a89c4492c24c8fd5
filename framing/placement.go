package framing

import (
	"github.com/radiomap/viewer/models"
	"gonum.org/v1/gonum/spatial/r3"
)

// InitialPlacement puts the camera above a corner of the box, looking from the
// min X side at mid Y, and resets the controls target to the origin. Frame
// then keeps this viewing direction while standardizing the distance.
func InitialPlacement(cam *models.Camera, ctl *models.Controls, box r3.Box) {
	center := Center(box)

	cam.Position = r3.Vec{
		X: box.Min.X,
		Y: center.Y,
		Z: 1.5 * box.Max.Z,
	}
	ctl.Target = r3.Vec{}
}

// FrameFirstMesh runs the coarse initial placement followed by Frame.
func FrameFirstMesh(cam *models.Camera, ctl *models.Controls, box r3.Box, opts Options) (float64, error) {
	if err := validate(cam, box, opts); err != nil {
		return 0, err
	}

	InitialPlacement(cam, ctl, box)
	return Frame(cam, ctl, box, opts)
}
