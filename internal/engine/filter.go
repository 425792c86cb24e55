package engine

import "github.com/leandrodaf/midistream/sdk/contracts"

// admit decides whether a captured event kind passes the configured ignore
// flags. Rejected events never reach reassembly or delivery, but their
// timestamps still advance the delta clock.
func admit(kind contracts.EventKind, flags contracts.IngestionFlags) bool {
	switch kind {
	case contracts.KindSysex:
		return !flags.SuppressSysex
	case contracts.KindTiming:
		return !flags.SuppressTiming
	case contracts.KindActiveSensing:
		return !flags.SuppressActiveSensing
	}
	return true
}
