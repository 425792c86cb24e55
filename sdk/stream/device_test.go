package stream

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/midistream/internal/logger"
	"github.com/leandrodaf/midistream/sdk/contracts"
)

type stubOutputBackend struct {
	mu   sync.Mutex
	sent [][]byte
}

func (s *stubOutputBackend) Transmit(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, append([]byte(nil), payload...))
	return nil
}

func (s *stubOutputBackend) ListDevices() ([]contracts.DeviceInfo, error) { return nil, nil }
func (s *stubOutputBackend) SelectDevice(deviceID int) error              { return nil }
func (s *stubOutputBackend) Close() error                                 { return nil }

func (s *stubOutputBackend) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestRingOutputDevice_DeliversWithoutBlockingSender(t *testing.T) {
	backend := &stubOutputBackend{}
	d := newRingOutputDevice(logger.NewNop(), backend, 1024)

	msgs := [][]byte{
		{0x90, 60, 100},
		{0xB0, 7, 127},
		{0x80, 60, 0},
	}
	for _, m := range msgs {
		if err := d.Send(m); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for backend.count() < len(msgs) {
		if time.Now().After(deadline) {
			t.Fatalf("pump delivered %d of %d messages", backend.count(), len(msgs))
		}
		time.Sleep(time.Millisecond)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	for i, m := range msgs {
		if !bytes.Equal(backend.sent[i], m) {
			t.Fatalf("sent[%d] = % X, want % X", i, backend.sent[i], m)
		}
	}
}

func TestRingOutputDevice_CloseFlushesPending(t *testing.T) {
	backend := &stubOutputBackend{}
	d := newRingOutputDevice(logger.NewNop(), backend, 1024)

	if err := d.Send([]byte{0x90, 60, 100}); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if backend.count() != 1 {
		t.Fatalf("message accepted before Close was not flushed: %d sent", backend.count())
	}
}

func TestQueueCapacityDefaults(t *testing.T) {
	options := &contracts.ClientOptions{}
	if got := queueCapacity(options); got != DefaultQueueCapacity {
		t.Fatalf("unset capacity = %d, want default %d", got, DefaultQueueCapacity)
	}

	contracts.WithQueueCapacity(0)(options)
	if got := queueCapacity(options); got != 0 {
		t.Fatalf("explicit zero capacity = %d, want 0", got)
	}

	contracts.WithQueueCapacity(25)(options)
	if got := queueCapacity(options); got != 25 {
		t.Fatalf("capacity = %d, want 25", got)
	}
}
