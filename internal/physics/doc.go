// Package physics provides the pendulum models driven by [sim.Driver].
//
// Every model advances by one frame per Step using semi-implicit Euler
// with a unit step: velocity is updated from the acceleration first, then
// the angle from the updated velocity.
//
//   - [Pendulum]: one bob, optional velocity damping
//   - [DoublePendulum]: two coupled bobs, chaotic, undamped
//   - [Driven]: a bob whose angle is prescribed as a cosine of time
//
// All models implement [sim.Configurable] so their parameters can be tuned
// between frames. [Pendulum] and [DoublePendulum] also implement
// [sim.Hamiltonian]:
//
//	p := physics.NewPendulum()
//	e0 := p.Energy(p.State())
package physics
