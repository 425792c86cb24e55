package midiwindows

// ClockScale converts winmm input timestamps (milliseconds since capture
// start) into seconds.
const ClockScale = 1e-3
