package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"
	"testing"
	"time"
)

// sliceSource serves a fixed sample slice in configurable batches, then
// EOF. batch 0 means "as much as asked for".
type sliceSource struct {
	data  []float32
	batch int
	pos   int
}

func (s *sliceSource) Read(dst []float32) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	n := len(dst)
	if s.batch > 0 && n > s.batch {
		n = s.batch
	}
	n = copy(dst[:n], s.data[s.pos:])
	s.pos += n
	if s.pos >= len(s.data) {
		return n, io.EOF
	}
	return n, nil
}

// tickSource produces one silent sample per read, forever, with a small
// delay so the capture loop has a chance to observe stop.
type tickSource struct{}

func (tickSource) Read(dst []float32) (int, error) {
	time.Sleep(time.Millisecond)
	dst[0] = 0
	return 1, nil
}

type chunkSink struct {
	mu     sync.Mutex
	chunks []Chunk
}

func (c *chunkSink) add(ch Chunk) {
	c.mu.Lock()
	c.chunks = append(c.chunks, ch)
	c.mu.Unlock()
}

func (c *chunkSink) all() []Chunk {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Chunk(nil), c.chunks...)
}

func (c *chunkSink) wait(t *testing.T, n int) []Chunk {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := c.all(); len(got) >= n {
			return got
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d chunks, have %d", n, len(c.all()))
	return nil
}

func TestCaptureFramesFixedWindows(t *testing.T) {
	data := make([]float32, 10)
	for i := range data {
		data[i] = float32(i) / 16
	}
	src := &sliceSource{data: data}
	sink := &chunkSink{}

	c := NewCapture(4, 16000)
	c.Start(src, sink.add)
	// 10 samples at window 4: two full windows, 2 leftovers discarded.
	chunks := sink.wait(t, 2)
	c.Stop()

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	for i, ch := range chunks {
		if len(ch.PCM) != 8 {
			t.Fatalf("chunk %d is %d bytes, want 8", i, len(ch.PCM))
		}
		if ch.SampleRate != 16000 {
			t.Fatalf("chunk %d rate = %d, want 16000", i, ch.SampleRate)
		}
	}
	// Windows carry consecutive source samples, quantized.
	want := EncodePCM16(data[4:8])
	if !bytes.Equal(chunks[1].PCM, want) {
		t.Fatalf("chunk 1 = %v, want %v", chunks[1].PCM, want)
	}
}

func TestCaptureHandlesShortReads(t *testing.T) {
	data := make([]float32, 8)
	src := &sliceSource{data: data, batch: 3} // never a full window per read
	sink := &chunkSink{}

	c := NewCapture(4, 16000)
	c.Start(src, sink.add)
	got := sink.wait(t, 2)
	c.Stop()

	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
}

func TestCaptureStopIsDeterministic(t *testing.T) {
	sink := &chunkSink{}
	c := NewCapture(1024, 16000)
	c.Start(tickSource{}, sink.add)

	finished := make(chan struct{})
	go func() {
		c.Stop()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}

	// No chunks may arrive after Stop has returned.
	n := len(sink.all())
	time.Sleep(20 * time.Millisecond)
	if got := len(sink.all()); got != n {
		t.Fatalf("chunk emitted after Stop: %d -> %d", n, got)
	}
}

// blockedSource parks Read until the stream closes, like a silent
// microphone or an idle stdin.
type blockedSource struct {
	release chan struct{}
}

func (s *blockedSource) Read(dst []float32) (int, error) {
	<-s.release
	return 0, io.EOF
}

func TestCaptureStopWithSourceBlockedInRead(t *testing.T) {
	src := &blockedSource{release: make(chan struct{})}
	c := NewCapture(1024, 16000)
	c.Start(src, func(Chunk) { t.Error("chunk emitted by a source that never produced data") })

	time.Sleep(10 * time.Millisecond) // let the reader park inside Read

	finished := make(chan struct{})
	go func() {
		c.Stop()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on a read that never returns")
	}
	close(src.release) // closing the stream releases the parked reader
}

func TestCaptureStopWithoutStart(t *testing.T) {
	c := NewCapture(1024, 16000)
	c.Stop()
	c.Stop()
}

func TestCaptureRestart(t *testing.T) {
	sink := &chunkSink{}
	c := NewCapture(2, 16000)

	c.Start(&sliceSource{data: make([]float32, 4)}, sink.add)
	sink.wait(t, 2)
	c.Stop()

	c.Start(&sliceSource{data: make([]float32, 4)}, sink.add)
	sink.wait(t, 4)
	c.Stop()

	if got := len(sink.all()); got != 4 {
		t.Fatalf("chunks after restart = %d, want 4", got)
	}
}

func TestReaderSource(t *testing.T) {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint16(raw[0:], 0x4000) // 16384
	binary.LittleEndian.PutUint16(raw[2:], 0xC000) // -16384

	src := NewReaderSource(bytes.NewReader(raw))
	dst := make([]float32, 4)
	n, err := src.Read(dst)
	if err != nil && err != io.EOF {
		t.Fatal(err)
	}
	if n != 4 {
		t.Fatalf("n = %d, want 4", n)
	}
	if dst[0] != 0.5 || dst[1] != -0.5 {
		t.Fatalf("samples = %v", dst[:2])
	}

	// Fully drained now.
	if _, err := src.Read(dst); err != io.EOF {
		t.Fatalf("err = %v, want EOF", err)
	}
}

func TestReaderSourceShortTail(t *testing.T) {
	src := NewReaderSource(bytes.NewReader(make([]byte, 6)))
	dst := make([]float32, 4)
	n, err := src.Read(dst)
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
	if err != io.EOF {
		t.Fatalf("err = %v, want EOF", err)
	}
}
