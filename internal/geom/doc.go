// Package geom converts pendulum arms between polar and Cartesian form.
//
// Angles are unbounded radians and are never wrapped: an arm that spins
// keeps accumulating angle. Two conventions exist:
//
//   - [Hanging]: angle measured from the vertical axis, x = L·sin θ, y = L·cos θ
//   - [Standard]: angle measured from the x axis, x = L·cos θ, y = L·sin θ
//
// A model picks one convention and keeps it for its whole lifetime.
package geom
