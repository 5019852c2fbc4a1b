package world

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
)

func TestWorldSDF(t *testing.T) {
	w := New("pipeland")
	w.AddPipeRow(3, 0.5, 5.0, 2.0, NewPose(3, -3, 0.5, 1.5708, 0, 0))

	var buf bytes.Buffer
	if err := w.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	sdf := buf.String()

	want := []string{
		`<sdf version="1.6">`,
		`<world name="pipeland">`,
		`<physics type="ode">`,
		`<max_step_size>0.004</max_step_size>`,
		`<gravity>0 0 -9.8</gravity>`,
		`<iters>10</iters>`,
		`<sor>1.3</sor>`,
		`<erp>0.2</erp>`,
		`<contact_max_correcting_vel>100</contact_max_correcting_vel>`,
		`<contact_surface_layer>0.001</contact_surface_layer>`,
		`model://ground_plane`,
		`model://sun`,
		`<model name="pipe_0">`,
		`<model name="pipe_2">`,
		`<pose>3 -3 0.5 1.5708 0 0</pose>`,
		`<pose>3 1 0.5 1.5708 0 0</pose>`,
		`<radius>0.5</radius>`,
		`<length>5</length>`,
		`<static>true</static>`,
	}
	for _, substring := range want {
		if !strings.Contains(sdf, substring) {
			t.Errorf("SDF output missing %v", substring)
		}
	}
}

func TestPoseRoundTrip(t *testing.T) {
	pose := NewPose(1.5, -2, 0.25, 0, 1.5708, -3.14)

	data, err := xml.Marshal(pose)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Pose
	if err := xml.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	if decoded != pose {
		t.Errorf("pose did not round-trip \n\twant(%v) \n\thave(%v)", pose,
			decoded)
	}
}

func TestVec3RoundTrip(t *testing.T) {
	gravity := Vec3{X: 0, Y: 0, Z: -9.8}

	data, err := xml.Marshal(gravity)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Vec3
	if err := xml.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	if decoded != gravity {
		t.Errorf("gravity did not round-trip \n\twant(%v) \n\thave(%v)",
			gravity, decoded)
	}
}
