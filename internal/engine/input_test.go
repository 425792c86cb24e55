package engine

import (
	"bytes"
	"errors"
	"testing"

	"github.com/leandrodaf/midistream/sdk/contracts"
)

// mockBackend implements contracts.CaptureBackend for tests. The tests
// themselves play the capture context by calling OnEventCaptured directly.
type mockBackend struct {
	starts int
	stops  int
}

func (b *mockBackend) Start() error { b.starts++; return nil }
func (b *mockBackend) Stop() error  { b.stops++; return nil }

func newTestInput(t *testing.T, queueCapacity int) (*Input, *mockBackend) {
	t.Helper()
	in := NewInput(InputConfig{
		QueueCapacity: queueCapacity,
		ClockScale:    1e-3, // Raw timestamps in milliseconds.
	})
	b := &mockBackend{}
	in.Attach(b)
	return in, b
}

func feedNote(in *Input, ts uint64) {
	in.OnEventCaptured(ts, []byte{0x90, 60, 100}, contracts.KindOther)
}

func TestInput_FirstDeltaZeroAcrossRestart(t *testing.T) {
	in, _ := newTestInput(t, 8)

	if err := in.StartCapture(); err != nil {
		t.Fatal(err)
	}
	feedNote(in, 1000)
	feedNote(in, 1500)

	msg, err := in.GetMessage()
	if err != nil || msg.Delta != 0.0 {
		t.Fatalf("first message delta = %v (err %v), want 0.0", msg.Delta, err)
	}
	msg, _ = in.GetMessage()
	if msg.Delta != 0.5 {
		t.Fatalf("second message delta = %v, want 0.5", msg.Delta)
	}

	if err := in.StopCapture(); err != nil {
		t.Fatal(err)
	}
	if err := in.StartCapture(); err != nil {
		t.Fatal(err)
	}
	feedNote(in, 9000)

	msg, _ = in.GetMessage()
	if msg.Delta != 0.0 {
		t.Fatalf("first message after restart delta = %v, want 0.0", msg.Delta)
	}
}

func TestInput_SuppressedTimingStillAdvancesClock(t *testing.T) {
	in, _ := newTestInput(t, 8)
	in.ConfigureIngestion(contracts.IngestionFlags{SuppressTiming: true})
	if err := in.StartCapture(); err != nil {
		t.Fatal(err)
	}

	feedNote(in, 1000)
	in.OnEventCaptured(2000, []byte{0xF8}, contracts.KindTiming)
	feedNote(in, 3000)

	in.GetMessage() // first note
	msg, _ := in.GetMessage()
	if msg.Bytes[0] != 0x90 {
		t.Fatalf("timing message leaked into delivery: % X", msg.Bytes)
	}
	// The clock reference moved to the suppressed clock event, so the second
	// note's delta spans 2000..3000, not 1000..3000.
	if msg.Delta != 1.0 {
		t.Fatalf("delta = %v, want 1.0", msg.Delta)
	}
	if remaining, _ := in.GetMessage(); len(remaining.Bytes) != 0 {
		t.Fatalf("unexpected extra message: % X", remaining.Bytes)
	}
}

func TestInput_SysexFragmentsDeliverOncePerTerminator(t *testing.T) {
	in, _ := newTestInput(t, 8)
	if err := in.StartCapture(); err != nil {
		t.Fatal(err)
	}

	first := sysexFragment(true, 120, false)
	second := sysexFragment(false, 120, true)

	in.OnEventCaptured(1000, first, contracts.KindSysex)
	if msg, _ := in.GetMessage(); len(msg.Bytes) != 0 {
		t.Fatalf("message delivered after unterminated fragment: %d bytes", len(msg.Bytes))
	}

	in.OnEventCaptured(1050, second, contracts.KindSysex)
	msg, _ := in.GetMessage()
	if len(msg.Bytes) != 240 {
		t.Fatalf("reassembled length = %d, want 240", len(msg.Bytes))
	}
	if msg.Bytes[len(msg.Bytes)-1] != contracts.StatusSysexEnd {
		t.Fatalf("reassembled message does not end in F7: %02X", msg.Bytes[len(msg.Bytes)-1])
	}
	if msg, _ := in.GetMessage(); len(msg.Bytes) != 0 {
		t.Fatal("more than one message delivered for one terminator")
	}
}

func TestInput_SuppressedSysexClearsContinuation(t *testing.T) {
	in, _ := newTestInput(t, 8)
	if err := in.StartCapture(); err != nil {
		t.Fatal(err)
	}

	in.OnEventCaptured(1000, sysexFragment(true, 10, false), contracts.KindSysex)
	in.ConfigureIngestion(contracts.IngestionFlags{SuppressSysex: true})
	in.OnEventCaptured(1100, sysexFragment(false, 10, true), contracts.KindSysex)

	in.ConfigureIngestion(contracts.IngestionFlags{})
	frag := sysexFragment(true, 6, true)
	in.OnEventCaptured(1200, frag, contracts.KindSysex)

	msg, _ := in.GetMessage()
	if !bytes.Equal(msg.Bytes, frag) {
		t.Fatalf("message = % X, want the fresh sysex % X", msg.Bytes, frag)
	}
}

func TestInput_QueueOverflowDropsNewest(t *testing.T) {
	in, _ := newTestInput(t, 3)
	if err := in.StartCapture(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		in.OnEventCaptured(uint64(1000+i), []byte{0x90, byte(i), 100}, contracts.KindOther)
	}

	if got := in.QueueDropped(); got != 1 {
		t.Fatalf("dropped = %d, want 1", got)
	}
	for i := 0; i < 3; i++ {
		msg, _ := in.GetMessage()
		if len(msg.Bytes) == 0 || msg.Bytes[1] != byte(i) {
			t.Fatalf("message %d = % X, want note %d", i, msg.Bytes, i)
		}
	}
	if msg, _ := in.GetMessage(); len(msg.Bytes) != 0 {
		t.Fatal("dropped message was delivered")
	}
}

func TestInput_CallbackMode(t *testing.T) {
	in, _ := newTestInput(t, 8)

	var got []contracts.Message
	cb := func(delta float64, payload []byte) {
		got = append(got, contracts.Message{Delta: delta, Bytes: payload})
	}

	if err := in.SetCallback(cb); err != nil {
		t.Fatal(err)
	}
	if err := in.SetCallback(cb); !errors.Is(err, contracts.ErrCallbackAlreadySet) {
		t.Fatalf("second SetCallback error = %v, want ErrCallbackAlreadySet", err)
	}

	if err := in.StartCapture(); err != nil {
		t.Fatal(err)
	}
	feedNote(in, 1000)
	feedNote(in, 1500)

	// The first callback stays active despite the rejected second set.
	if len(got) != 2 {
		t.Fatalf("callback received %d messages, want 2", len(got))
	}
	if got[1].Delta != 0.5 {
		t.Fatalf("callback delta = %v, want 0.5", got[1].Delta)
	}

	if _, err := in.GetMessage(); !errors.Is(err, contracts.ErrCallbackModeActive) {
		t.Fatalf("GetMessage in callback mode error = %v, want ErrCallbackModeActive", err)
	}

	if err := in.CancelCallback(); err != nil {
		t.Fatal(err)
	}
	if err := in.CancelCallback(); !errors.Is(err, contracts.ErrNoCallbackSet) {
		t.Fatalf("second CancelCallback error = %v, want ErrNoCallbackSet", err)
	}
}

func TestInput_CallbackThenPollingRequiresCancel(t *testing.T) {
	in, _ := newTestInput(t, 8)

	if _, err := in.GetMessage(); err != nil {
		t.Fatalf("GetMessage in unset mode: %v", err)
	}
	// Polling mode is now locked in.
	if err := in.SetCallback(func(float64, []byte) {}); !errors.Is(err, contracts.ErrPollingModeActive) {
		t.Fatalf("SetCallback after polling error = %v, want ErrPollingModeActive", err)
	}
}

func TestInput_PollingUnavailableWithoutQueue(t *testing.T) {
	in, _ := newTestInput(t, 0)
	if _, err := in.GetMessage(); !errors.Is(err, contracts.ErrPollingUnavailable) {
		t.Fatalf("GetMessage error = %v, want ErrPollingUnavailable", err)
	}
}

func TestInput_NilCallbackRejected(t *testing.T) {
	in, _ := newTestInput(t, 8)
	if err := in.SetCallback(nil); !errors.Is(err, contracts.ErrNilCallback) {
		t.Fatalf("SetCallback(nil) error = %v, want ErrNilCallback", err)
	}
}

func TestInput_DeliveredBytesAreCopied(t *testing.T) {
	in, _ := newTestInput(t, 8)
	if err := in.StartCapture(); err != nil {
		t.Fatal(err)
	}

	raw := []byte{0x90, 60, 100}
	in.OnEventCaptured(1000, raw, contracts.KindOther)
	raw[1] = 0 // Backend reuses its event buffer.

	msg, _ := in.GetMessage()
	if msg.Bytes[1] != 60 {
		t.Fatalf("delivered bytes alias the backend buffer: % X", msg.Bytes)
	}
}

func TestInput_LifecycleErrors(t *testing.T) {
	in, b := newTestInput(t, 8)

	if err := in.StopCapture(); !errors.Is(err, contracts.ErrCaptureNotActive) {
		t.Fatalf("StopCapture before start error = %v, want ErrCaptureNotActive", err)
	}
	if err := in.StartCapture(); err != nil {
		t.Fatal(err)
	}
	if err := in.StartCapture(); !errors.Is(err, contracts.ErrCaptureActive) {
		t.Fatalf("double StartCapture error = %v, want ErrCaptureActive", err)
	}
	if err := in.StopCapture(); err != nil {
		t.Fatal(err)
	}
	if b.starts != 1 || b.stops != 1 {
		t.Fatalf("backend starts=%d stops=%d, want 1/1", b.starts, b.stops)
	}
}

func TestInput_NoBackend(t *testing.T) {
	in := NewInput(InputConfig{QueueCapacity: 4})
	if err := in.StartCapture(); !errors.Is(err, ErrNoBackend) {
		t.Fatalf("StartCapture without backend error = %v, want ErrNoBackend", err)
	}
}

func TestInput_CallbackMayReconfigureEngine(t *testing.T) {
	in, _ := newTestInput(t, 8)

	done := make(chan error, 1)
	err := in.SetCallback(func(delta float64, payload []byte) {
		// Runs on the capture path with no engine lock held.
		done <- in.CancelCallback()
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := in.StartCapture(); err != nil {
		t.Fatal(err)
	}
	feedNote(in, 1000)

	if err := <-done; err != nil {
		t.Fatalf("CancelCallback from callback: %v", err)
	}
	// Delivery is back to unset; the next note is queued instead.
	feedNote(in, 2000)
	msg, err := in.GetMessage()
	if err != nil || len(msg.Bytes) == 0 {
		t.Fatalf("queued delivery after in-callback cancel: %v, % X", err, msg.Bytes)
	}
}
