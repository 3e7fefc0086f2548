// Package sim drives a pendulum model one frame at a time.
//
// The package defines the contract between models and their hosts:
//
//   - [State]: packed mutable state of a model
//   - [System]: a model advanced by one semi-implicit Euler frame per Step
//   - [Snapshot]: read-only projection handed to renderers
//   - [Driver]: owns a System plus its trail history
//
// # Example
//
//	sys := physics.NewDoublePendulum()
//	d := sim.New(sys, sim.DefaultConfig())
//	for {
//	    if err := d.Step(); err != nil {
//	        // degenerate configuration, state left untouched
//	    }
//	    draw(d.Snapshot(), d.Trail(0), d.Trail(1))
//	}
//
// # Thread Safety
//
// Driver instances are NOT thread-safe. Step, SetParam and the readers must
// be called from one goroutine, the way a frame loop does.
package sim
