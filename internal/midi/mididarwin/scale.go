package mididarwin

// ClockScale converts the backend's raw timestamps (nanoseconds from the
// monotonic wall clock) into seconds.
const ClockScale = 1e-9
