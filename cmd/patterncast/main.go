package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/patterncast/patterncast/internal/audio"
	"github.com/patterncast/patterncast/internal/config"
	"github.com/patterncast/patterncast/internal/encode"
	"github.com/patterncast/patterncast/internal/pattern"
	"github.com/patterncast/patterncast/internal/radio"
	"github.com/patterncast/patterncast/internal/stream"
	"github.com/patterncast/patterncast/internal/web"
)

// maxAnnouncementBytes caps an announcement upload (~3 minutes of 48kHz
// stereo 16-bit WAV).
const maxAnnouncementBytes = 32 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", "err", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	session := radio.NewSession(cfg.TempoCPS, cfg.TempoMin, cfg.TempoMax)
	mixer := audio.NewMixer(cfg.DuckLevel, cfg.SpeechGain)
	registry := stream.NewRegistry()
	frames := stream.NewBroadcaster()

	sched := radio.NewScheduler(
		session,
		mixer,
		pattern.NewStepRenderer(),
		registry,
		frames,
		func() (encode.Compressor, error) { return encode.NewMP3Compressor(cfg.BitrateKbps) },
		radio.SchedulerConfig{
			ChunkSeconds:     cfg.ChunkSeconds,
			LookaheadSeconds: cfg.LookaheadSeconds,
			MinCycleDelay:    time.Duration(cfg.MinCycleDelayMs) * time.Millisecond,
		},
	)

	webrtcHandler := stream.NewWebRTCHandler(frames, cfg.OpusBitrate)

	// Boot pattern: go live immediately, like any radio should.
	if cfg.Pattern != "" {
		p, err := pattern.Compile(cfg.Pattern)
		if err != nil {
			log.Fatal("boot pattern", "pattern", cfg.Pattern, "err", err)
		}
		session.SetPattern(p)
		if err := sched.Start(); err != nil {
			log.Fatal("start broadcast", "err", err)
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(web.IndexHTML)
	})

	mux.Handle("/stream", stream.NewHTTPHandler(registry, cfg.StationName))
	mux.Handle("/offer", webrtcHandler)

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		st := sched.Status()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		json.NewEncoder(w).Encode(map[string]any{
			"playing":         st.Playing,
			"cps":             st.Tempo,
			"bpm":             st.Tempo * 240, // 4 beats per cycle at 4/4
			"pattern":         st.Pattern,
			"listenerCount":   registry.Count() + webrtcHandler.PeerCount(),
			"httpListeners":   registry.Count(),
			"webrtcListeners": webrtcHandler.PeerCount(),
			"speechQueued":    st.SpeechQueued,
			"config": map[string]any{
				"chunkSeconds":     cfg.ChunkSeconds,
				"lookaheadSeconds": cfg.LookaheadSeconds,
				"bitrateKbps":      cfg.BitrateKbps,
			},
		})
	})

	mux.HandleFunc("/api/pattern", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
			http.Error(w, "invalid pattern request", http.StatusBadRequest)
			return
		}
		p, err := pattern.Compile(req.Code)
		if err != nil {
			http.Error(w, fmt.Sprintf("compile: %v", err), http.StatusBadRequest)
			return
		}
		session.SetPattern(p)
		log.Info("pattern installed", "steps", p.Steps())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "steps": p.Steps()})
	})

	mux.HandleFunc("/api/tempo", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			CPS float64 `json:"cps"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CPS <= 0 {
			http.Error(w, "invalid tempo", http.StatusBadRequest)
			return
		}
		effective := session.SetTempo(req.CPS)
		log.Info("tempo set", "cps", effective)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "cps": effective})
	})

	mux.HandleFunc("/api/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		if err := sched.Start(); err != nil {
			http.Error(w, fmt.Sprintf("start: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	mux.HandleFunc("/api/stop", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		sched.Stop()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	mux.HandleFunc("/api/say", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxAnnouncementBytes))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		left, right, err := audio.DecodeWAV(bytes.NewReader(body))
		if err != nil {
			http.Error(w, fmt.Sprintf("decode: %v", err), http.StatusBadRequest)
			return
		}
		sched.QueueSpeech(left, right)
		log.Info("announcement queued", "seconds", float64(len(left))/audio.SampleRate)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "seconds": float64(len(left)) / audio.SampleRate})
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		sched.Stop()
		server.Close()
	}()

	log.Info("patterncast live", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("http server", "err", err)
	}
}
