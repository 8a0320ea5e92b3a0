// Headless call client: joins a room, negotiates a peer connection and
// runs captured PCM through the translation engine, playing the
// synthesized audio into the outbound track. Useful for exercising the
// full pipeline without a browser.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/globalbridge/bridge/internal/audio"
	"github.com/globalbridge/bridge/internal/client"
	"github.com/globalbridge/bridge/internal/domain"
	"github.com/globalbridge/bridge/internal/profile"
	"github.com/globalbridge/bridge/internal/rtc"
	"github.com/globalbridge/bridge/internal/translate"
)

func main() {
	server := flag.String("server", "ws://localhost:4000/ws/signaling", "Signaling websocket URL")
	room := flag.String("room", "demo", "Room to join")
	engine := flag.String("engine", "wss://generativelanguage.googleapis.com/ws/live", "Translation engine endpoint")
	model := flag.String("model", "gemini-2.5-flash-native-audio-preview-12-2025", "Translation engine model")
	lang := flag.String("lang", "Spanish", "Target language")
	input := flag.String("input", "-", "Raw PCM16 16kHz mono input, '-' for stdin")
	output := flag.String("output", "", "Optional file for synthesized PCM16 24kHz audio")
	profilePath := flag.String("profile", "voice_profile.json", "Voice profile JSON path")
	clone := flag.Bool("clone", false, "Ask the engine to reproduce the enrolled voice")
	inRate := flag.Int("in-rate", 16000, "Capture sample rate")
	outRate := flag.Int("out-rate", 24000, "Engine output sample rate")
	window := flag.Int("window", 1024, "Capture window in samples")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	prof, err := profile.Load(*profilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("load voice profile")
	}

	// Outbound track carries the translated voice to the remote peer.
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: "audio/L16", ClockRate: uint32(*outRate), Channels: 1},
		"translated-audio", "globalbridge")
	if err != nil {
		log.Fatal().Err(err).Msg("create local track")
	}
	scheduler := audio.NewScheduler(audio.NewTrackOutput(track, *outRate))

	var outFile *os.File
	if *output != "" {
		outFile, err = os.Create(*output)
		if err != nil {
			log.Fatal().Err(err).Msg("create output file")
		}
		defer outFile.Close()
	}

	manager := translate.NewManager(translate.Config{
		Endpoint:        *engine,
		Model:           *model,
		InputSampleRate: *inRate,
	})
	session, err := manager.StartSession(ctx, *lang, prof, *clone, translate.Callbacks{
		OnAudio: func(pcm []byte) {
			if outFile != nil {
				_, _ = outFile.Write(pcm)
			}
			if err := scheduler.PlayChunk(pcm); err != nil {
				log.Error().Err(err).Msg("schedule chunk")
			}
		},
		OnTranscript: func(side translate.Side, text string) {
			which := "user"
			if side == translate.SideTranslated {
				which = "translated"
			}
			log.Info().Str("side", which).Str("text", text).Msg("transcript")
		},
		OnClose: func(err error) {
			if err != nil {
				log.Error().Err(err).Msg("translation session closed")
			} else {
				log.Info().Msg("translation session closed")
			}
			cancel()
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("start translation session")
	}
	defer session.Stop()

	src, cleanup, err := openInput(*input)
	if err != nil {
		log.Fatal().Err(err).Msg("open input")
	}

	capture := audio.NewCapture(*window, *inRate)
	capture.Start(audio.NewReaderSource(src), func(chunk audio.Chunk) {
		session.SendAudio(chunk.PCM)
	})
	defer capture.Stop()
	// Runs before Stop: closing the input releases a reader parked on it.
	defer cleanup()

	transport, err := rtc.NewPionTransport(rtc.DefaultWebRTCConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("create transport")
	}

	sig, err := client.DialSignaling(ctx, *server, domain.RoomID(*room))
	if err != nil {
		log.Fatal().Err(err).Msg("dial signaling")
	}

	call := client.NewCall(sig, transport)
	defer call.Hangup()
	defer scheduler.StopAll()

	log.Info().Str("room", *room).Str("lang", *lang).Msg("joining call")
	if err := call.Start(ctx, track); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("call ended")
	}
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
