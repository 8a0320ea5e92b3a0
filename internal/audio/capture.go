package audio

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

// SampleSource yields normalized mono samples. Read blocks until at
// least one sample is available; a reader parked inside Read is
// released only when the underlying stream closes, so owners should
// close the source when they are done capturing.
type SampleSource interface {
	Read(dst []float32) (int, error)
}

// Chunk is one fixed capture window, already quantized for transport.
type Chunk struct {
	PCM        []byte
	SampleRate int
}

// readResult is one source read handed from the reader to the framer.
type readResult struct {
	samples []float32
	err     error
}

// Capture frames a sample source into fixed windows. 1024 samples at
// 16 kHz is ~64 ms per window, which bounds capture latency while
// keeping per-chunk overhead low.
//
// Reads run on their own goroutine and hand batches to the framing
// loop over a channel, so Stop never has to wait out a read that is
// blocked on a silent source.
type Capture struct {
	window int
	rate   int

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

func NewCapture(window, sampleRate int) *Capture {
	return &Capture{window: window, rate: sampleRate}
}

// Start pulls windows from src and emits each one immediately via
// onChunk; nothing is buffered across windows. Returns after spawning
// the capture goroutines; a second Start before Stop is a no-op.
func (c *Capture) Start(src SampleSource, onChunk func(Chunk)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	batches := make(chan readResult)
	go c.readLoop(src, batches, c.stop)
	go c.frameLoop(onChunk, batches, c.stop, c.done)
}

// readLoop owns the blocking reads. It hands every batch to the framer
// unless a stop has been requested, then exits; a read still blocked at
// that point ends when the source closes.
func (c *Capture) readLoop(src SampleSource, batches chan<- readResult, stop <-chan struct{}) {
	for {
		buf := make([]float32, c.window)
		n, err := src.Read(buf)
		select {
		case batches <- readResult{samples: buf[:n], err: err}:
		case <-stop:
			return
		}
		if err != nil {
			return
		}
	}
}

func (c *Capture) frameLoop(onChunk func(Chunk), batches <-chan readResult, stop, done chan struct{}) {
	defer close(done)
	buf := make([]float32, c.window)
	filled := 0
	for {
		select {
		case <-stop:
			return
		case res := <-batches:
			pending := res.samples
			for len(pending) > 0 {
				n := copy(buf[filled:], pending)
				filled += n
				pending = pending[n:]
				if filled == c.window {
					onChunk(Chunk{PCM: EncodePCM16(buf), SampleRate: c.rate})
					filled = 0
				}
			}
			if res.err != nil {
				if res.err != io.EOF {
					log.Error().Err(res.err).Str("module", "audio.capture").Msg("source read")
				}
				// A partial final window is discarded: chunks are
				// fixed-length by contract.
				return
			}
		}
	}
}

// Stop tears capture down deterministically: it waits for the framing
// loop, so no chunk is emitted after Stop returns, and it never waits
// on a read blocked inside the source. Calling Stop when not started
// is a no-op.
func (c *Capture) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stop)
	done := c.done
	c.mu.Unlock()
	<-done
}

// ReaderSource adapts a PCM16 little-endian byte stream (file, stdin)
// into a SampleSource.
type ReaderSource struct {
	r io.Reader
}

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

func (s *ReaderSource) Read(dst []float32) (int, error) {
	raw := make([]byte, len(dst)*2)
	n, err := io.ReadFull(s.r, raw)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	samples := n / 2
	for i := 0; i < samples; i++ {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		dst[i] = float32(v) / 32768.0
	}
	return samples, err
}
