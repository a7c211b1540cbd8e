package timing

import (
	"errors"
	"testing"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fur/internal/haltest"
)

// frame encodes passes timed render passes, ends the frame, submits and
// starts the measurement, like the renderer does.
func frame(t *testing.T, in *Instrument, dev *haltest.Device, q *haltest.Queue, passes int) *haltest.CommandEncoder {
	t.Helper()
	raw, err := dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{})
	if err != nil {
		t.Fatalf("CreateCommandEncoder: %v", err)
	}
	enc := raw.(*haltest.CommandEncoder)
	for i := 0; i < passes; i++ {
		tw, err := in.Record()
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
		enc.BeginRenderPass(&hal.RenderPassDescriptor{TimestampWrites: tw}).End()
	}
	in.EndFrame(enc)
	sub, _ := q.Submit(nil)
	in.Measure(sub)
	return enc
}

func newInstrument(t *testing.T) (*Instrument, *haltest.Device, *haltest.Queue) {
	t.Helper()
	dev := haltest.NewDevice()
	q := &haltest.Queue{}
	in, err := New(dev, q, DefaultPairs)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return in, dev, q
}

func TestInstrumentRecordAdvancesCursor(t *testing.T) {
	in, _, _ := newInstrument(t)

	tw1, _ := in.Record()
	tw2, _ := in.Record()
	if in.Cursor() != 4 {
		t.Fatalf("Cursor() = %d, want 4", in.Cursor())
	}
	if *tw1.BeginningOfPassWriteIndex != 0 || *tw1.EndOfPassWriteIndex != 1 {
		t.Errorf("first pair = %d/%d, want 0/1", *tw1.BeginningOfPassWriteIndex, *tw1.EndOfPassWriteIndex)
	}
	if *tw2.BeginningOfPassWriteIndex != 2 || *tw2.EndOfPassWriteIndex != 3 {
		t.Errorf("second pair = %d/%d, want 2/3", *tw2.BeginningOfPassWriteIndex, *tw2.EndOfPassWriteIndex)
	}
}

func TestInstrumentRingExhausted(t *testing.T) {
	in, _, _ := newInstrument(t)

	for i := 0; i < DefaultPairs/2; i++ {
		if _, err := in.Record(); err != nil {
			t.Fatalf("record %d: %v", i+1, err)
		}
	}
	if _, err := in.Record(); !errors.Is(err, ErrRingExhausted) {
		t.Fatalf("record %d: err = %v, want %v", DefaultPairs/2+1, err, ErrRingExhausted)
	}
}

func TestInstrumentMeasure(t *testing.T) {
	in, dev, q := newInstrument(t)
	dev.PassDuration = 1500

	enc := frame(t, in, dev, q, 2)
	if enc.Resolves != 1 || enc.Copies != 1 {
		t.Fatalf("resolves/copies = %d/%d, want 1/1", enc.Resolves, enc.Copies)
	}
	if !in.Busy() {
		t.Fatal("Busy() = false after Measure")
	}

	if in.Poll() {
		t.Fatal("Poll() = true before the GPU finished")
	}
	if in.Avg() != 0 {
		t.Fatalf("Avg() = %v before completion", in.Avg())
	}

	q.CompleteAll()
	if !in.Poll() {
		t.Fatal("Poll() = false after completion")
	}
	if in.Avg() != 1500 {
		t.Errorf("Avg() = %v, want 1500", in.Avg())
	}
	if in.Cursor() != 0 {
		t.Errorf("Cursor() = %d after measurement, want 0", in.Cursor())
	}
	if in.Busy() {
		t.Error("Busy() = true after measurement")
	}
	if in.Samples() != 1 {
		t.Errorf("Samples() = %d, want 1", in.Samples())
	}
}

func TestInstrumentBusySkips(t *testing.T) {
	in, dev, q := newInstrument(t)
	dev.PassDuration = 1000

	frame(t, in, dev, q, 2)

	// The first measurement is still in flight: nothing is resolved, the
	// map is not restarted and the cursor keeps advancing.
	dev.PassDuration = 9000
	enc := frame(t, in, dev, q, 2)
	if enc.Resolves != 0 || enc.Copies != 0 {
		t.Errorf("busy frame appended resolves/copies = %d/%d", enc.Resolves, enc.Copies)
	}
	if in.Cursor() != 8 {
		t.Errorf("Cursor() = %d, want 8 (not reset while busy)", in.Cursor())
	}
	if in.Skips() != 1 {
		t.Errorf("Skips() = %d, want 1", in.Skips())
	}
	if in.Avg() != 0 {
		t.Errorf("Avg() changed while busy: %v", in.Avg())
	}

	q.CompleteAll()
	in.Poll()
	// Only the copied pairs count; the busy frame's passes are dropped.
	if in.Avg() != 1000 {
		t.Errorf("Avg() = %v, want 1000", in.Avg())
	}
	if in.Cursor() != 0 {
		t.Errorf("Cursor() = %d, want 0", in.Cursor())
	}

	frame(t, in, dev, q, 1)
	q.CompleteAll()
	in.Poll()
	if in.Avg() != 9000 {
		t.Errorf("Avg() = %v, want 9000", in.Avg())
	}
}

func TestInstrumentTimestampPeriod(t *testing.T) {
	dev := haltest.NewDevice()
	dev.PassDuration = 400
	q := &haltest.Queue{Period: 2.5}
	in, err := New(dev, q, 8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	frame(t, in, dev, q, 3)
	q.CompleteAll()
	in.Poll()
	if in.Avg() != 1000 {
		t.Errorf("Avg() = %v, want 1000 ns", in.Avg())
	}
}

func TestInstrumentNothingRecorded(t *testing.T) {
	in, dev, q := newInstrument(t)

	enc := frame(t, in, dev, q, 0)
	if enc.Resolves != 0 {
		t.Errorf("resolved an empty ring")
	}
	if in.Busy() {
		t.Error("mapped with nothing copied")
	}
}

func TestInstrumentUnsupported(t *testing.T) {
	dev := haltest.NewDevice()
	dev.TimestampsUnsupported = true

	_, err := New(dev, &haltest.Queue{}, DefaultPairs)
	if !errors.Is(err, hal.ErrTimestampsNotSupported) {
		t.Fatalf("err = %v, want %v", err, hal.ErrTimestampsNotSupported)
	}
	if _, err := New(haltest.NewDevice(), &haltest.Queue{}, 0); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("zero pairs: err = %v", err)
	}
}

func TestInstrumentDestroyCancels(t *testing.T) {
	in, dev, q := newInstrument(t)
	frame(t, in, dev, q, 1)

	in.Destroy()
	if dev.Calls("DestroyQuerySet") != 1 {
		t.Errorf("DestroyQuerySet calls = %d, want 1", dev.Calls("DestroyQuerySet"))
	}
	if dev.Calls("DestroyBuffer") != 2 {
		t.Errorf("DestroyBuffer calls = %d, want 2", dev.Calls("DestroyBuffer"))
	}
	q.CompleteAll()
	in.Poll()
	if in.Avg() != 0 {
		t.Errorf("Avg() = %v after Destroy", in.Avg())
	}
}
