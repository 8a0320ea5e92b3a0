package audio

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// resyncSlack is how far the output clock may run past the cursor after
// the queue drains before the cursor snaps back to the clock. Without
// it, a long pause would keep scheduling ever further into silence.
const resyncSlack = time.Second

// Scheduled is one buffer handed to the output, stoppable until it has
// finished playing.
type Scheduled interface {
	Stop()
}

// Output is the audio device abstraction the scheduler drives. Now is
// the device clock position; Schedule queues samples to start at the
// given clock position and invokes onEnded when playback finishes.
// onEnded must fire from the output's own goroutine, never from inside
// Schedule itself.
type Output interface {
	Now() time.Duration
	SampleRate() int
	Schedule(samples []float32, startAt time.Duration, onEnded func()) (Scheduled, error)
}

// Scheduler reconstructs PCM chunks into a gapless output stream.
// Delivery order is output order; the only state is a single cursor,
// the next scheduled start position.
type Scheduler struct {
	mu     sync.Mutex
	out    Output
	cursor time.Duration
	active map[Scheduled]struct{}
}

func NewScheduler(out Output) *Scheduler {
	s := &Scheduler{out: out}
	s.Init()
	return s
}

// Init resets the cursor and the tracked buffer set.
func (s *Scheduler) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = 0
	s.active = make(map[Scheduled]struct{})
}

// PlayChunk decodes one PCM16 chunk and schedules it. The start time is
// max(cursor, now): never in the past (the output would silently drop
// it) and never before the previous chunk's end (overlap garbles).
func (s *Scheduler) PlayChunk(pcm []byte) error {
	samples := DecodePCM16(pcm)
	dur := time.Duration(len(samples)) * time.Second / time.Duration(s.out.SampleRate())

	s.mu.Lock()
	defer s.mu.Unlock()

	startAt := s.cursor
	if now := s.out.Now(); now > startAt {
		startAt = now
	}

	var handle Scheduled
	var err error
	handle, err = s.out.Schedule(samples, startAt, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.active, handle)
		if len(s.active) == 0 {
			if now := s.out.Now(); now > s.cursor+resyncSlack {
				log.Debug().Str("module", "audio.playback").Dur("cursor", s.cursor).Dur("clock", now).Msg("cursor resync")
				s.cursor = now
			}
		}
	})
	if err != nil {
		return err
	}
	s.active[handle] = struct{}{}
	s.cursor = startAt + dur
	return nil
}

// StopAll stops every scheduled buffer and resets the cursor to zero.
// Buffers that already finished naturally are fine to stop again.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	active := s.active
	s.active = make(map[Scheduled]struct{})
	s.cursor = 0
	s.mu.Unlock()

	for handle := range active {
		handle.Stop()
	}
}

// Cursor exposes the next scheduled start position.
func (s *Scheduler) Cursor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}
