package contracts

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    EventKind
	}{
		{"note on", []byte{0x90, 60, 100}, KindOther},
		{"control change", []byte{0xB0, 7, 127}, KindOther},
		{"sysex start", []byte{0xF0, 0x7E, 0xF7}, KindSysex},
		{"sysex terminator", []byte{0xF7}, KindSysex},
		{"sysex continuation without status", []byte{0x01, 0x02, 0x03}, KindSysex},
		{"timing clock", []byte{0xF8}, KindTiming},
		{"tick", []byte{0xF9}, KindTiming},
		{"quarter frame", []byte{0xF1, 0x04}, KindTiming},
		{"active sensing", []byte{0xFE}, KindActiveSensing},
		{"song position", []byte{0xF2, 0, 0}, KindOther},
		{"system reset", []byte{0xFF}, KindOther},
		{"empty", nil, KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.payload); got != tt.want {
				t.Fatalf("Classify(% X) = %v, want %v", tt.payload, got, tt.want)
			}
		})
	}
}
