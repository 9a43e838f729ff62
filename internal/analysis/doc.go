// Package analysis turns recorded orbit states into phase-space views.
//
//   - [RadialPortrait]: radius against radial velocity; a closed orbit
//     traces one loop, a precessing orbit retraces it
//   - [PerihelionSection]: positions at each perihelion passage; precession
//     shows up as points stepping around the central mass
//
// Both render to text with [PhasePortraitToASCII]:
//
//	portrait := analysis.RadialPortrait(states)
//	fmt.Print(analysis.PhasePortraitToASCII(portrait, 60, 20))
package analysis
