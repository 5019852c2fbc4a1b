// Package world generates the declarative SDF scene consumed by the
// simulator at startup: physics solver parameters, a ground plane, a
// sun light, and rows of static industrial pipes for the drone to land
// on. The package performs no schema validation; malformed entries are
// the simulator's responsibility.
package world

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// Default physics parameters of the landing scene
const (
	DefaultStepSize           float64 = 0.004
	DefaultRealTimeFactor     float64 = 1.0
	DefaultRealTimeUpdateRate float64 = 250.0

	DefaultSolverIters int     = 10
	DefaultSolverSOR   float64 = 1.3

	DefaultCFM                     float64 = 0.0
	DefaultERP                     float64 = 0.2
	DefaultContactMaxCorrectingVel float64 = 100.0
	DefaultContactSurfaceLayer     float64 = 0.001
)

// Solver holds the iterative constraint solver parameters of the ODE
// physics engine
type Solver struct {
	Type  string  `xml:"type"`
	Iters int     `xml:"iters"`
	SOR   float64 `xml:"sor"`
}

// Constraints holds the contact constraint parameters of the ODE
// physics engine
type Constraints struct {
	CFM                     float64 `xml:"cfm"`
	ERP                     float64 `xml:"erp"`
	ContactMaxCorrectingVel float64 `xml:"contact_max_correcting_vel"`
	ContactSurfaceLayer     float64 `xml:"contact_surface_layer"`
}

// ODE groups the ODE engine configuration
type ODE struct {
	Solver      Solver      `xml:"solver"`
	Constraints Constraints `xml:"constraints"`
}

// Physics describes the physics engine configuration of the scene:
// gravity, the fixed simulation step size, and solver parameters
type Physics struct {
	Type               string  `xml:"type,attr"`
	MaxStepSize        float64 `xml:"max_step_size"`
	RealTimeFactor     float64 `xml:"real_time_factor"`
	RealTimeUpdateRate float64 `xml:"real_time_update_rate"`
	Gravity            Vec3    `xml:"gravity"`
	ODE                ODE     `xml:"ode"`
}

// Include pulls an external model into the scene by URI
type Include struct {
	URI string `xml:"uri"`
}

// Cylinder is a cylindrical collision/visual geometry
type Cylinder struct {
	Radius float64 `xml:"radius"`
	Length float64 `xml:"length"`
}

// Geometry wraps the single geometry of a collision or visual element
type Geometry struct {
	Cylinder Cylinder `xml:"cylinder"`
}

// Collision is the collision element of a link
type Collision struct {
	Name     string   `xml:"name,attr"`
	Geometry Geometry `xml:"geometry"`
}

// Visual is the visual element of a link
type Visual struct {
	Name     string   `xml:"name,attr"`
	Geometry Geometry `xml:"geometry"`
}

// Link is a single rigid body of a model
type Link struct {
	Name      string    `xml:"name,attr"`
	Collision Collision `xml:"collision"`
	Visual    Visual    `xml:"visual"`
}

// Model is a named static obstacle placed at a pose
type Model struct {
	Name   string `xml:"name,attr"`
	Static bool   `xml:"static"`
	Pose   Pose   `xml:"pose"`
	Link   Link   `xml:"link"`
}

// World is the scene description consumed by the simulator
type World struct {
	XMLName  xml.Name  `xml:"world"`
	Name     string    `xml:"name,attr"`
	Physics  Physics   `xml:"physics"`
	Includes []Include `xml:"include"`
	Models   []Model   `xml:"model"`
}

// New returns a new World with the default landing-scene physics, a
// ground plane, and a sun light. Pipes are added with AddPipe or
// AddPipeRow.
func New(name string) *World {
	return &World{
		Name: name,
		Physics: Physics{
			Type:               "ode",
			MaxStepSize:        DefaultStepSize,
			RealTimeFactor:     DefaultRealTimeFactor,
			RealTimeUpdateRate: DefaultRealTimeUpdateRate,
			Gravity:            Vec3{X: 0, Y: 0, Z: -9.8},
			ODE: ODE{
				Solver: Solver{
					Type:  "quick",
					Iters: DefaultSolverIters,
					SOR:   DefaultSolverSOR,
				},
				Constraints: Constraints{
					CFM:                     DefaultCFM,
					ERP:                     DefaultERP,
					ContactMaxCorrectingVel: DefaultContactMaxCorrectingVel,
					ContactSurfaceLayer:     DefaultContactSurfaceLayer,
				},
			},
		},
		Includes: []Include{
			{URI: "model://ground_plane"},
			{URI: "model://sun"},
		},
	}
}

// AddPipe places one static pipe of the given radius and length at
// pose
func (w *World) AddPipe(name string, radius, length float64, pose Pose) {
	cylinder := Cylinder{Radius: radius, Length: length}
	w.Models = append(w.Models, Model{
		Name:   name,
		Static: true,
		Pose:   pose,
		Link: Link{
			Name:      "link",
			Collision: Collision{Name: "collision", Geometry: Geometry{cylinder}},
			Visual:    Visual{Name: "visual", Geometry: Geometry{cylinder}},
		},
	})
}

// AddPipeRow places n parallel static pipes spaced evenly along the
// y axis, starting from base. Pipes lie on their sides, so the base
// pose's roll/pitch/yaw should put the cylinder axis horizontal.
func (w *World) AddPipeRow(n int, radius, length, spacing float64,
	base Pose) {
	for i := 0; i < n; i++ {
		pose := base
		pose.Y += float64(i) * spacing
		w.AddPipe(fmt.Sprintf("pipe_%d", i), radius, length, pose)
	}
}

// WriteTo marshals the World as an SDF document into out
func (w *World) WriteTo(out io.Writer) error {
	if _, err := io.WriteString(out, xml.Header); err != nil {
		return fmt.Errorf("writeto: %v", err)
	}
	if _, err := io.WriteString(out, "<sdf version=\"1.6\">\n"); err != nil {
		return fmt.Errorf("writeto: %v", err)
	}

	enc := xml.NewEncoder(out)
	enc.Indent("  ", "  ")
	if err := enc.Encode(w); err != nil {
		return fmt.Errorf("writeto: could not encode world: %v", err)
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("writeto: %v", err)
	}

	if _, err := io.WriteString(out, "\n</sdf>\n"); err != nil {
		return fmt.Errorf("writeto: %v", err)
	}
	return nil
}

// WriteFile writes the World as an SDF document to the file at path
func (w *World) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writefile: could not create world file: %v", err)
	}
	defer file.Close()

	return w.WriteTo(file)
}
