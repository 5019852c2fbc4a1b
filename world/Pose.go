package world

import (
	"encoding/xml"
	"fmt"
)

// Pose is a position and orientation in the simulated world. In SDF
// text form a pose is six space-separated numbers: x y z roll pitch
// yaw, with angles in radians.
type Pose struct {
	X float64
	Y float64
	Z float64

	Roll  float64
	Pitch float64
	Yaw   float64
}

// NewPose returns a Pose at the given position with the given
// orientation
func NewPose(x, y, z, roll, pitch, yaw float64) Pose {
	return Pose{X: x, Y: y, Z: z, Roll: roll, Pitch: pitch, Yaw: yaw}
}

// String returns the SDF text form of the Pose
func (p Pose) String() string {
	return fmt.Sprintf("%v %v %v %v %v %v", p.X, p.Y, p.Z, p.Roll, p.Pitch,
		p.Yaw)
}

// MarshalXML implements the xml.Marshaler interface
func (p Pose) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(p.String(), start)
}

// UnmarshalXML implements the xml.Unmarshaler interface
func (p *Pose) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var text string
	if err := d.DecodeElement(&text, &start); err != nil {
		return err
	}

	n, err := fmt.Sscan(text, &p.X, &p.Y, &p.Z, &p.Roll, &p.Pitch, &p.Yaw)
	if err != nil {
		return fmt.Errorf("pose: could not parse %q: %v", text, err)
	}
	if n != 6 {
		return fmt.Errorf("pose: expected 6 components, got %v", n)
	}
	return nil
}

// Vec3 is a 3-dimensional vector in SDF text form: three
// space-separated numbers
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// String returns the SDF text form of the Vec3
func (v Vec3) String() string {
	return fmt.Sprintf("%v %v %v", v.X, v.Y, v.Z)
}

// MarshalXML implements the xml.Marshaler interface
func (v Vec3) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(v.String(), start)
}

// UnmarshalXML implements the xml.Unmarshaler interface
func (v *Vec3) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var text string
	if err := d.DecodeElement(&text, &start); err != nil {
		return err
	}

	n, err := fmt.Sscan(text, &v.X, &v.Y, &v.Z)
	if err != nil {
		return fmt.Errorf("vec3: could not parse %q: %v", text, err)
	}
	if n != 3 {
		return fmt.Errorf("vec3: expected 3 components, got %v", n)
	}
	return nil
}
