package audio

import (
	"sync"
	"time"

	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/rs/zerolog/log"
)

// SampleWriter is the outbound leg of a local media track; pion's
// TrackLocalStaticSample satisfies it.
type SampleWriter interface {
	WriteSample(media.Sample) error
}

// TrackOutput plays scheduled buffers into a local webrtc track, so the
// translated voice is what the remote peer hears. The clock is wall
// time since construction.
type TrackOutput struct {
	track SampleWriter
	rate  int
	epoch time.Time
}

func NewTrackOutput(track SampleWriter, sampleRate int) *TrackOutput {
	return &TrackOutput{track: track, rate: sampleRate, epoch: time.Now()}
}

func (o *TrackOutput) Now() time.Duration {
	return time.Since(o.epoch)
}

func (o *TrackOutput) SampleRate() int {
	return o.rate
}

type timerScheduled struct {
	timer *time.Timer
	once  sync.Once
}

func (t *timerScheduled) Stop() {
	t.once.Do(func() { t.timer.Stop() })
}

func (o *TrackOutput) Schedule(samples []float32, startAt time.Duration, onEnded func()) (Scheduled, error) {
	dur := time.Duration(len(samples)) * time.Second / time.Duration(o.rate)
	pcm := EncodePCM16(samples)

	delay := startAt - o.Now()
	if delay < 0 {
		delay = 0
	}
	timer := time.AfterFunc(delay, func() {
		if err := o.track.WriteSample(media.Sample{Data: pcm, Duration: dur}); err != nil {
			log.Error().Err(err).Str("module", "audio.trackout").Msg("write sample")
		}
		// The track consumes the whole buffer at once; it counts as
		// finished after its play time has elapsed.
		time.AfterFunc(dur, onEnded)
	})
	return &timerScheduled{timer: timer}, nil
}
