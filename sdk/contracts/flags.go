package contracts

// IngestionFlags selects which captured event kinds are discarded before
// delivery. Flags are read on every event by the capture context, so they
// must be configured before capture starts.
type IngestionFlags struct {
	SuppressSysex         bool // Discard system-exclusive messages.
	SuppressTiming        bool // Discard clock, tick and quarter-frame messages.
	SuppressActiveSensing bool // Discard active-sensing keep-alives.
}
