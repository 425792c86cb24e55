package engine

import (
	"testing"

	"github.com/leandrodaf/midistream/sdk/contracts"
)

func TestAdmit(t *testing.T) {
	all := contracts.IngestionFlags{
		SuppressSysex:         true,
		SuppressTiming:        true,
		SuppressActiveSensing: true,
	}

	tests := []struct {
		name  string
		kind  contracts.EventKind
		flags contracts.IngestionFlags
		want  bool
	}{
		{"other always admitted", contracts.KindOther, all, true},
		{"sysex admitted by default", contracts.KindSysex, contracts.IngestionFlags{}, true},
		{"sysex suppressed", contracts.KindSysex, contracts.IngestionFlags{SuppressSysex: true}, false},
		{"timing admitted by default", contracts.KindTiming, contracts.IngestionFlags{}, true},
		{"timing suppressed", contracts.KindTiming, contracts.IngestionFlags{SuppressTiming: true}, false},
		{"sensing admitted by default", contracts.KindActiveSensing, contracts.IngestionFlags{}, true},
		{"sensing suppressed", contracts.KindActiveSensing, contracts.IngestionFlags{SuppressActiveSensing: true}, false},
		{"timing flag does not affect sysex", contracts.KindSysex, contracts.IngestionFlags{SuppressTiming: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := admit(tt.kind, tt.flags); got != tt.want {
				t.Fatalf("admit(%v, %+v) = %v, want %v", tt.kind, tt.flags, got, tt.want)
			}
		})
	}
}
