// Package viz draws the orbit in the terminal using the Bubble Tea framework.
//
//   - [Scene]: the frame renderer handed to the simulation loop
//   - [Canvas]: Braille-based pixel canvas looking down the Z axis
//   - [Model]: Bubble Tea model that ticks the loop once per frame
//
// # Key Bindings
//
//	q, Ctrl+C - Quit
//
// The view stops advancing as soon as the loop reports an integration
// error; the last good frame stays on screen together with the error.
package viz
