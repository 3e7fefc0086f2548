// Package viz hosts a running simulation in the terminal.
//
// [Model] is a Bubble Tea program that steps a [sim.Driver] once per tick
// and draws the arms and their fading trails on a Braille [Canvas].
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	R       - Reset to the initial state and parameters
//	Tab     - Select the next parameter
//	Up/K    - Scale the selected parameter by 1.05
//	Down/J  - Scale the selected parameter by 0.95
//	Q       - Quit
package viz
