package contracts

// Message is a single fully framed MIDI message as delivered by the engine.
type Message struct {
	Delta float64 // Seconds elapsed since the previous message (0.0 for the first).
	Bytes []byte  // Raw message payload, including the status byte.
}

// EventKind classifies a captured event for ingestion filtering.
type EventKind int

const (
	// KindOther covers channel voice and any message not matched below.
	KindOther EventKind = iota
	// KindSysex is a system-exclusive message or a fragment of one.
	KindSysex
	// KindTiming covers timing clock, tick and MTC quarter-frame messages.
	KindTiming
	// KindActiveSensing is the 0xFE keep-alive message.
	KindActiveSensing
)

// MIDI status bytes the engine cares about.
const (
	StatusSysexStart   byte = 0xF0
	StatusQuarterFrame byte = 0xF1
	StatusSysexEnd     byte = 0xF7
	StatusTimingClock  byte = 0xF8
	StatusTick         byte = 0xF9
	StatusActiveSense  byte = 0xFE
)

// Classify maps a raw event to its EventKind from the leading status byte.
// A fragment that begins with a data byte instead of a status byte can only
// be the continuation of a split sysex burst, so it classifies as sysex.
func Classify(payload []byte) EventKind {
	if len(payload) == 0 {
		return KindOther
	}
	if payload[0] < 0x80 {
		return KindSysex
	}
	switch payload[0] {
	case StatusSysexStart, StatusSysexEnd:
		return KindSysex
	case StatusTimingClock, StatusTick, StatusQuarterFrame:
		return KindTiming
	case StatusActiveSense:
		return KindActiveSensing
	}
	return KindOther
}
