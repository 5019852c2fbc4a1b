// Package pipedrone provides a 2D quadrotor landing environment. A
// drone starts in the air above a static industrial pipe and must set
// down gently on top of it, controlled by a main downward thruster and
// two lateral thrusters.
package pipedrone

import (
	"fmt"
	"image/color"
	"math"

	"golang.org/x/exp/rand"

	"github.com/ByteArena/box2d"
	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gianfranco98/pipeland/environment"
	"github.com/gianfranco98/pipeland/timestep"
	"github.com/gianfranco98/pipeland/utils/floatutils"
)

const (
	FPS float64 = 50

	// speed of game, adjusts forces as well
	Scale float64 = 30.0

	XGravity float64 = 0.0
	YGravity float64 = -9.8

	MainThrusterPower float64 = 13.0
	SideThrusterPower float64 = 0.6

	SideThrusterAway   float64 = 12.0
	SideThrusterHeight float64 = 6.0

	// Drone hull half-extents in pixels
	DroneHalfW float64 = 17.0
	DroneHalfH float64 = 6.0

	// Pipe geometry in pixels
	PipeRadius float64 = 14.0

	ViewportW float64 = 600
	ViewportH float64 = 400

	// State observations
	StateObservations int     = 6
	MinAngle          float64 = -math.Pi
	MaxAngle          float64 = math.Pi
	// Box2D limits on velocity: 2.0 units per timestep
	MaxVelocity float64 = 2.0 / (1.0 / FPS) // In Box2D units
	MinVelocity float64 = -MaxVelocity      // in Box2D units

	// A touch-down is gentle when the drone is slower and more level
	// than these limits at pipe contact
	SoftLandingSpeed float64 = 1.0
	SoftLandingAngle float64 = 0.35

	// Default starting values
	InitialX      float64 = (ViewportW / Scale / 2)
	InitialY      float64 = ((ViewportH - ViewportH/25) / Scale)
	InitialRandom float64 = 750.0 // Larger values make landing harder
)

// WorldToPixelCoord converts Box2D world coordinates to pixel
// coordinates for rendering
func WorldToPixelCoord(coords [2]float64) [2]float64 {
	x, y := coords[0], coords[1]

	pixelX := Scale * x
	pixelY := ViewportH - Scale*y

	return [2]float64{pixelX, pixelY}
}

// contactDetector flags contacts between the drone hull and the scene.
// Contact with the pipe may be a landing; contact with the ground
// never is.
type contactDetector struct {
	env *pipeDrone
}

func newContactDetector(e *pipeDrone) *contactDetector {
	return &contactDetector{e}
}

func (c *contactDetector) BeginContact(contact box2d.B2ContactInterface) {
	bodyA := contact.GetFixtureA().GetBody()
	bodyB := contact.GetFixtureB().GetBody()

	if c.env.drone != bodyA && c.env.drone != bodyB {
		return
	}

	if c.env.pipe == bodyA || c.env.pipe == bodyB {
		c.env.pipeContact = true
		return
	}
	c.env.groundContact = true
}

func (c *contactDetector) EndContact(contact box2d.B2ContactInterface) {
	bodyA := contact.GetFixtureA().GetBody()
	bodyB := contact.GetFixtureB().GetBody()

	if c.env.drone != bodyA && c.env.drone != bodyB {
		return
	}

	if c.env.pipe == bodyA || c.env.pipe == bodyB {
		c.env.pipeContact = false
		return
	}
	c.env.groundContact = false
}

func (c *contactDetector) PreSolve(contact box2d.B2ContactInterface,
	oldManifold box2d.B2Manifold) {
}

func (c *contactDetector) PostSolve(contact box2d.B2ContactInterface,
	impulse *box2d.B2ContactImpulse) {
}

// pipeDrone implements the physics of the landing environment. Action
// interpretation is left to wrappers; the physics core works with
// main and side thruster powers directly.
type pipeDrone struct {
	task pipeDroneTask

	world box2d.B2World

	boundary       []*box2d.B2Body
	boundaryColour color.Color
	xBounds        r1.Interval
	yBounds        r1.Interval

	ground      *box2d.B2Body
	groundShade color.Color
	skyShade    color.Color
	droneColour color.Color
	pipeColour  color.Color

	pipe  *box2d.B2Body
	pipeX float64
	pipeY float64

	drone         *box2d.B2Body
	pipeContact   bool
	groundContact bool
	crashed       bool
	landed        bool

	seed uint64
	rng  distuv.Uniform

	angleBounds    r1.Interval
	velocityBounds r1.Interval

	prevStep timestep.TimeStep
	mPower   float64
	sPower   float64
}

func newPipeDrone(task pipeDroneTask, seed uint64) *pipeDrone {
	d := pipeDrone{}
	d.world = box2d.MakeB2World(box2d.B2Vec2{X: XGravity, Y: YGravity})

	d.boundaryColour = color.RGBA{R: 255, G: 166, B: 0, A: 255}
	d.groundShade = color.RGBA{R: 110, G: 110, B: 110, A: 255}
	d.skyShade = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	d.droneColour = color.RGBA{R: 128, G: 102, B: 230, A: 255}
	d.pipeColour = color.RGBA{R: 196, G: 112, B: 54, A: 255}

	d.seed = seed
	src := rand.NewSource(seed)
	d.rng = distuv.Uniform{Min: 0, Max: 1.0, Src: src}

	d.angleBounds = r1.Interval{Min: MinAngle, Max: MaxAngle}
	d.velocityBounds = r1.Interval{Min: MinVelocity, Max: MaxVelocity}
	d.yBounds = r1.Interval{Min: 0.0, Max: InitialY}
	d.xBounds = r1.Interval{Min: 0.0, Max: ViewportW / Scale}

	// Pipe rests on the ground in the middle of the scene
	d.pipeX = ViewportW / Scale / 2.0
	d.pipeY = PipeRadius / Scale

	task.registerEnv(&d)
	d.task = task

	return &d
}

func (d *pipeDrone) MPower() float64 {
	return d.mPower
}

func (d *pipeDrone) SPower() float64 {
	return d.sPower
}

func (d *pipeDrone) Drone() *box2d.B2Body {
	return d.drone
}

// PipeContact returns whether the drone hull is currently touching the
// pipe
func (d *pipeDrone) PipeContact() bool {
	return d.pipeContact
}

// Crashed returns whether the drone hit the ground or touched the pipe
// too hard
func (d *pipeDrone) Crashed() bool {
	return d.crashed
}

// Landed returns whether the drone has set down gently on the pipe
func (d *pipeDrone) Landed() bool {
	return d.landed
}

func (d *pipeDrone) GetReward(state, action, nextState mat.Vector) float64 {
	return d.task.GetReward(state, action, nextState)
}

func (d *pipeDrone) AtGoal(state mat.Matrix) bool {
	return d.task.AtGoal(state)
}

func (d *pipeDrone) CurrentTimeStep() timestep.TimeStep {
	return d.prevStep
}

func (d *pipeDrone) destroy() {
	if d.drone == nil {
		return
	}
	d.world.SetContactListener(nil)

	d.world.DestroyBody(d.ground)
	d.ground = nil

	d.world.DestroyBody(d.pipe)
	d.pipe = nil

	d.world.DestroyBody(d.drone)
	d.drone = nil

	for i := range d.boundary {
		d.world.DestroyBody(d.boundary[i])
	}
	d.boundary = nil
}

// Reset starts a new episode: the scene is rebuilt, the drone is
// placed at a position sampled from the task's Starter, and a random
// initial disturbance force is applied to it.
func (d *pipeDrone) Reset() (timestep.TimeStep, error) {
	d.destroy()
	d.world.SetContactListener(newContactDetector(d))
	d.pipeContact = false
	d.groundContact = false
	d.crashed = false
	d.landed = false
	d.prevStep = timestep.TimeStep{}
	d.mPower = 0.0
	d.sPower = 0.0

	d.task.reset()

	start := d.task.Start()
	if err := validateStart(start, d.xBounds, d.yBounds); err != nil {
		return timestep.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	W := ViewportW / Scale
	H := ViewportH / Scale

	// Bounds
	d.boundary = make([]*box2d.B2Body, 4)
	for i := 0; i < 4; i++ {
		boundsDef := box2d.NewB2BodyDef()
		boundsDef.Type = 0 // Static body
		d.boundary[i] = d.world.CreateBody(boundsDef)
		boundsShape := box2d.NewB2EdgeShape()
		if i == 0 {
			boundsShape.Set(box2d.MakeB2Vec2(0.0, 0.0),
				box2d.MakeB2Vec2(0.0, H))
		} else if i == 1 {
			boundsShape.Set(box2d.MakeB2Vec2(0.0, H), box2d.MakeB2Vec2(W, H))
		} else if i == 2 {
			boundsShape.Set(box2d.MakeB2Vec2(W, H), box2d.MakeB2Vec2(W, 0.0))
		} else {
			boundsShape.Set(box2d.MakeB2Vec2(W, 0.0),
				box2d.MakeB2Vec2(0.0, 0.0))
		}
		boundsFix := box2d.MakeB2FixtureDef()
		boundsFix.Shape = boundsShape
		d.boundary[i].CreateFixtureFromDef(&boundsFix)
	}

	// Ground
	groundDef := box2d.NewB2BodyDef()
	groundDef.Type = 0
	groundDef.Position.Set(0, 0)
	d.ground = d.world.CreateBody(groundDef)

	groundShape := box2d.NewB2EdgeShape()
	groundShape.Set(*box2d.NewB2Vec2(0.0, 0.0), *box2d.NewB2Vec2(W, 0.0))

	groundFix := box2d.MakeB2FixtureDef()
	groundFix.Shape = groundShape
	groundFix.Friction = 0.1
	d.ground.CreateFixtureFromDef(&groundFix)

	// Pipe
	pipeDef := box2d.NewB2BodyDef()
	pipeDef.Type = 0
	pipeDef.Position = box2d.MakeB2Vec2(d.pipeX, d.pipeY)
	d.pipe = d.world.CreateBody(pipeDef)

	pipeShape := box2d.NewB2CircleShape()
	pipeShape.M_radius = PipeRadius / Scale

	pipeFix := box2d.MakeB2FixtureDef()
	pipeFix.Shape = pipeShape
	pipeFix.Friction = 0.9
	d.pipe.CreateFixtureFromDef(&pipeFix)

	// Drone body
	initialX := start.AtVec(0)
	initialY := start.AtVec(1)
	droneDef := box2d.MakeB2BodyDef()
	droneDef.Type = 2 // Dynamic body
	droneDef.Position = box2d.MakeB2Vec2(initialX, initialY)
	droneDef.Angle = 0.0

	droneBody := d.world.CreateBody(&droneDef)
	d.drone = droneBody

	droneShape := box2d.NewB2PolygonShape()
	droneShape.SetAsBox(DroneHalfW/Scale, DroneHalfH/Scale)

	droneFix := box2d.MakeB2FixtureDef()
	droneFix.Shape = droneShape
	droneFix.Density = 5.0
	droneFix.Friction = 0.1
	droneFix.Restitution = 0.0
	droneBody.CreateFixtureFromDef(&droneFix)

	// Apply a random disturbance force to the drone
	initialRandom := start.AtVec(2)
	initialForceX := (d.rng.Rand() * 2 * initialRandom) - initialRandom
	initialForceY := (d.rng.Rand() * 2 * initialRandom) - initialRandom
	initialForce := box2d.MakeB2Vec2(initialForceX, initialForceY)
	d.drone.ApplyForceToCenter(initialForce, true)

	step, last, err := d.step(0.0, 0.0)
	if err != nil {
		return timestep.TimeStep{}, fmt.Errorf("reset: %v", err)
	}
	if last {
		return timestep.TimeStep{}, fmt.Errorf("reset: environment ended " +
			"as soon as it began")
	}
	return step, nil
}

// step advances the physics by one frame under the given thruster
// powers. The main power is the magnitude of the downward thruster in
// [0, 1]; the side power is the signed magnitude of the lateral
// thrusters in [-1, 1].
func (d *pipeDrone) step(mainPower, sidePower float64) (timestep.TimeStep,
	bool, error) {
	mainPower = floatutils.Clip(mainPower, 0.0, 1.0)
	sidePower = floatutils.Clip(sidePower, -1.0, 1.0)

	tip := [2]float64{
		math.Sin(d.drone.GetAngle()),
		math.Cos(d.drone.GetAngle()),
	}
	side := [2]float64{-tip[1], tip[0]}
	var dispersion [2]float64
	for i := range dispersion {
		dispersion[i] = (d.rng.Rand() / d.rng.Max) / Scale
	}

	// Main thruster
	d.mPower = mainPower
	if mainPower > 0.0 {
		ox := tip[0]*(4.0/Scale+2.0*dispersion[0]) + side[0]*dispersion[1]
		oy := -tip[1]*(4.0/Scale+2.0*dispersion[0]) - side[1]*dispersion[1]

		impulsePos := box2d.MakeB2Vec2(
			d.drone.GetPosition().X+ox,
			d.drone.GetPosition().Y+oy,
		)
		linearImpulse := box2d.MakeB2Vec2(
			-ox*MainThrusterPower*mainPower,
			-oy*MainThrusterPower*mainPower,
		)
		d.drone.ApplyLinearImpulse(linearImpulse, impulsePos, true)
	}

	// Side thrusters
	d.sPower = math.Abs(sidePower)
	if sidePower != 0.0 {
		direction := floatutils.Sign(sidePower)
		sPower := math.Abs(sidePower)

		ox := tip[0]*dispersion[0] + side[0]*(3.0*dispersion[1]+direction*
			SideThrusterAway/Scale)
		oy := -tip[1]*dispersion[0] - side[1]*(3.0*dispersion[1]+direction*
			SideThrusterAway/Scale)

		impulsePos := box2d.MakeB2Vec2(
			d.drone.GetPosition().X+ox-tip[0]*DroneHalfW/Scale,
			d.drone.GetPosition().Y+oy+tip[1]*SideThrusterHeight/Scale,
		)
		linearImpulse := box2d.MakeB2Vec2(
			-ox*SideThrusterPower*sPower,
			-oy*SideThrusterPower*sPower,
		)
		d.drone.ApplyLinearImpulse(linearImpulse, impulsePos, true)
	}

	d.world.Step(1.0/FPS, 6*int(Scale), 2*int(Scale))

	// A drone on the ground has crashed. A drone on the pipe has landed
	// only if it arrived slowly and level.
	vel := d.drone.GetLinearVelocity()
	speed := math.Hypot(vel.X, vel.Y)
	angle := floatutils.Wrap(d.drone.GetAngle(), d.angleBounds.Min,
		d.angleBounds.Max)
	if d.groundContact {
		d.crashed = true
	}
	if d.pipeContact && !d.landed && !d.crashed {
		if speed <= SoftLandingSpeed && math.Abs(angle) <= SoftLandingAngle {
			d.landed = true
		} else {
			d.crashed = true
		}
	}

	stateVec := d.observation()

	action := mat.NewVecDense(2, []float64{mainPower, sidePower})
	reward := d.task.GetReward(d.prevStep.Observation, action, stateVec)
	t := timestep.New(timestep.Mid, reward, stateVec, d.prevStep.Number+1)
	d.task.End(&t)

	d.prevStep = t
	return t, t.Last(), nil
}

// observation computes the 6-dimensional state observation: position
// relative to the pipe top, linear velocity, heading angle, and
// angular velocity, all normalized to roughly unit scale.
func (d *pipeDrone) observation() *mat.VecDense {
	pos := d.drone.GetPosition()
	vel := d.drone.GetLinearVelocity()

	padY := d.pipeY + PipeRadius/Scale + DroneHalfH/Scale

	state := []float64{
		(pos.X - d.pipeX) / (ViewportW / Scale / 2.0),
		(pos.Y - padY) / (ViewportH / Scale),
		vel.X * (ViewportW / Scale / 2.0) / FPS,
		vel.Y * (ViewportH / Scale / 2.0) / FPS,
		floatutils.Wrap(d.drone.GetAngle(), d.angleBounds.Min,
			d.angleBounds.Max),
		20.0 * d.drone.GetAngularVelocity() / FPS,
	}

	if len(state) != StateObservations {
		panic(fmt.Sprintf("observation: illegal number of state "+
			"observations \n\twant(%v) \n\thave(%v)", StateObservations,
			len(state)))
	}
	return mat.NewVecDense(StateObservations, state)
}

func (d *pipeDrone) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(StateObservations, nil)

	lowerBound := mat.NewVecDense(StateObservations, []float64{
		-1.,
		-1.,
		d.velocityBounds.Min,
		d.velocityBounds.Min,
		d.angleBounds.Min,
		d.velocityBounds.Min,
	})

	upperBound := mat.NewVecDense(StateObservations, []float64{
		1.,
		1.,
		d.velocityBounds.Max,
		d.velocityBounds.Max,
		d.angleBounds.Max,
		d.velocityBounds.Max,
	})

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Continuous)
}

// Render draws the current scene and saves it as a PNG frame
func (d *pipeDrone) Render(filename string) error {
	dc := gg.NewContext(int(ViewportW), int(ViewportH))
	dc.SetColor(d.skyShade)
	dc.Clear()

	// Ground
	groundPx := WorldToPixelCoord([2]float64{0, 0})
	dc.SetColor(d.groundShade)
	dc.SetLineWidth(5.0)
	dc.DrawLine(0, groundPx[1], ViewportW, groundPx[1])
	dc.Stroke()

	// Bounds
	dc.ClearPath()
	dc.SetColor(d.boundaryColour)
	dc.SetLineWidth(5.0)
	for i := range d.boundary {
		fix := d.boundary[i].GetFixtureList()
		sh := fix.M_shape.(*box2d.B2EdgeShape)

		pixelCoords1 := WorldToPixelCoord([2]float64{sh.M_vertex1.X,
			sh.M_vertex1.Y})
		pixelCoords2 := WorldToPixelCoord([2]float64{sh.M_vertex2.X,
			sh.M_vertex2.Y})

		dc.DrawLine(pixelCoords1[0], pixelCoords1[1], pixelCoords2[0],
			pixelCoords2[1])
	}
	dc.Stroke()

	// Pipe
	dc.ClearPath()
	pipePx := WorldToPixelCoord([2]float64{d.pipeX, d.pipeY})
	dc.SetColor(d.pipeColour)
	dc.DrawCircle(pipePx[0], pipePx[1], PipeRadius)
	dc.Fill()

	// Drone
	droneFix := d.drone.GetFixtureList()
	for droneFix != nil {
		shape := droneFix.M_shape.(*box2d.B2PolygonShape)
		path := make([][2]float64, 0, shape.M_count)
		for i, vertex := range shape.M_vertices {
			if i >= shape.M_count {
				break
			}
			trans := droneFix.M_body.M_xf
			vertex = box2d.B2TransformVec2Mul(trans, vertex)

			pixelCoords := WorldToPixelCoord([2]float64{vertex.X, vertex.Y})
			path = append(path, pixelCoords)
		}

		dc.ClearPath()
		for _, point := range path {
			dc.LineTo(point[0], point[1])
		}
		dc.LineTo(path[0][0], path[0][1])

		dc.SetColor(d.droneColour)
		dc.Fill()
		droneFix = droneFix.M_next
	}

	return dc.SavePNG(filename)
}

func validateStart(state mat.Vector, xBounds, yBounds r1.Interval) error {
	if state.Len() != 3 {
		return fmt.Errorf("starting values should be 3-dimensional")
	}

	if state.AtVec(0) > xBounds.Max || state.AtVec(0) < xBounds.Min {
		return fmt.Errorf("x position out of bounds, expected x in "+
			"(%v, %v) but got x = %v", xBounds.Min, xBounds.Max,
			state.AtVec(0))
	}

	if state.AtVec(1) > yBounds.Max || state.AtVec(1) < yBounds.Min {
		return fmt.Errorf("y position out of bounds, expected y in "+
			"(%v, %v) but got y = %v", yBounds.Min, yBounds.Max,
			state.AtVec(1))
	}

	return nil
}
