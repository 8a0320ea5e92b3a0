// Package translate owns the bidirectional streaming session with the
// external speech-to-speech translation engine.
package translate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/globalbridge/bridge/internal/domain"
)

type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Side distinguishes the two append-only transcripts of a session.
type Side int

const (
	SideUser Side = iota
	SideTranslated
)

const (
	sendQueueSize = 64
	writeWait     = 5 * time.Second
)

// Callbacks deliver engine events to the consumer. All failures arrive
// through OnClose; nothing in this package panics or throws across the
// boundary.
type Callbacks struct {
	// OnAudio receives synthesized PCM16 destined for the playback
	// scheduler, verbatim as decoded from the stream.
	OnAudio func(pcm []byte)
	// OnTranscript receives each appended transcript fragment.
	OnTranscript func(side Side, text string)
	// OnClose fires exactly once when the session ends; err is nil on
	// a clean stop.
	OnClose func(err error)
}

type Config struct {
	Endpoint        string
	Model           string
	InputSampleRate int
}

// Manager opens translation sessions. One session at a time per
// participant; a restart means StartSession again on a fresh handle.
type Manager struct {
	cfg Config
	// dial is swappable for tests.
	dial func(ctx context.Context, url string) (*websocket.Conn, error)
}

func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg: cfg,
		dial: func(ctx context.Context, url string) (*websocket.Conn, error) {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
			return conn, err
		},
	}
}

// Session is one live stream to the engine. Operations against a
// closed handle are no-ops; the handle never becomes reusable.
type Session struct {
	state atomic.Int32
	conn  *websocket.Conn
	cb    Callbacks
	mime  string

	sendq chan []byte
	done  chan struct{}

	closeOnce sync.Once

	mu         sync.Mutex
	user       string
	translated string
}

// StartSession opens the stream and sends the setup directive. It
// returns while the handshake may still be in flight: the session is
// connecting, and SendAudio already queues. Active is reached when the
// engine acknowledges the setup.
func (m *Manager) StartSession(ctx context.Context, targetLanguage string, profile *domain.VoiceProfile, cloneVoice bool, cb Callbacks) (*Session, error) {
	conn, err := m.dial(ctx, m.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial engine: %w", err)
	}

	s := &Session{
		conn:  conn,
		cb:    cb,
		mime:  fmt.Sprintf("audio/pcm;rate=%d", m.cfg.InputSampleRate),
		sendq: make(chan []byte, sendQueueSize),
		done:  make(chan struct{}),
	}
	s.state.Store(int32(StateConnecting))

	setup, err := json.Marshal(clientMessage{Setup: &sessionSetup{
		Model:              m.cfg.Model,
		SystemInstruction:  translatorDirective(targetLanguage, profile, cloneVoice),
		ResponseModalities: []string{"AUDIO"},
		InputTranscription: true,
		OutputTranscript:   true,
	}})
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Info().Str("module", "translate").Str("lang", targetLanguage).Bool("clone", cloneVoice && profile.Cloneable()).Msg("session starting")

	go s.writePump(setup)
	go s.readPump()
	return s, nil
}

// SendAudio queues one captured chunk for transmission. It never
// blocks: with no open or opening session it is a no-op, and a full
// queue drops the chunk.
func (s *Session) SendAudio(pcm []byte) {
	if s == nil {
		return
	}
	switch s.State() {
	case StateConnecting, StateActive:
	default:
		return
	}

	frame, err := json.Marshal(clientMessage{RealtimeInput: &realtimeInput{
		Media: mediaBlob{Data: base64.StdEncoding.EncodeToString(pcm), MimeType: s.mime},
	}})
	if err != nil {
		log.Error().Err(err).Str("module", "translate").Msg("encode audio frame")
		return
	}

	select {
	case s.sendq <- frame:
	default:
		log.Warn().Str("module", "translate").Msg("outbound queue full, chunk dropped")
	}
}

func (s *Session) writePump(setup []byte) {
	if err := s.write(setup); err != nil {
		s.fail(fmt.Errorf("send setup: %w", err))
		return
	}
	for {
		select {
		case <-s.done:
			return
		case frame := <-s.sendq:
			if err := s.write(frame); err != nil {
				s.fail(fmt.Errorf("send audio: %w", err))
				return
			}
		}
	}
}

func (s *Session) write(frame []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

func (s *Session) readPump() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.State() == StateClosing || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				s.finish(nil)
			} else {
				s.fail(err)
			}
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Err(err).Str("module", "translate").Msg("bad engine message")
			continue
		}
		s.dispatch(msg)
	}
}

func (s *Session) dispatch(msg serverMessage) {
	if msg.SetupComplete != nil {
		if s.state.CompareAndSwap(int32(StateConnecting), int32(StateActive)) {
			log.Info().Str("module", "translate").Msg("session active")
		}
		return
	}
	if msg.Error != nil {
		s.fail(msg.Error)
		return
	}
	content := msg.ServerContent
	if content == nil {
		return
	}

	if content.Audio != nil {
		pcm, err := base64.StdEncoding.DecodeString(content.Audio.Data)
		if err != nil {
			log.Warn().Err(err).Str("module", "translate").Msg("bad audio payload")
		} else if s.cb.OnAudio != nil {
			s.cb.OnAudio(pcm)
		}
	}
	if content.InputTranscription != nil {
		s.appendTranscript(SideUser, content.InputTranscription.Text)
	}
	if content.OutputTranscription != nil {
		s.appendTranscript(SideTranslated, content.OutputTranscription.Text)
	}
}

// appendTranscript accumulates append-only for the life of the session;
// fragments are never diffed or deduplicated.
func (s *Session) appendTranscript(side Side, text string) {
	s.mu.Lock()
	if side == SideUser {
		s.user += text
	} else {
		s.translated += text
	}
	s.mu.Unlock()
	if s.cb.OnTranscript != nil {
		s.cb.OnTranscript(side, text)
	}
}

// Transcripts returns the accumulated user and translated text.
func (s *Session) Transcripts() (user, translated string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.translated
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Stop requests engine-side closure and releases local state. Safe to
// call at any point, any number of times, including on a nil session.
func (s *Session) Stop() {
	if s == nil {
		return
	}
	if !s.state.CompareAndSwap(int32(StateConnecting), int32(StateClosing)) &&
		!s.state.CompareAndSwap(int32(StateActive), int32(StateClosing)) {
		return
	}
	deadline := time.Now().Add(writeWait)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	s.finish(nil)
}

func (s *Session) fail(err error) {
	log.Error().Err(err).Str("module", "translate").Msg("session error")
	s.finish(err)
}

// finish is the single terminal path: idempotent, forces closed, and
// notifies the consumer on the same route for errors and clean stops.
func (s *Session) finish(err error) {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.done)
		_ = s.conn.Close()
		if s.cb.OnClose != nil {
			s.cb.OnClose(err)
		}
	})
}
