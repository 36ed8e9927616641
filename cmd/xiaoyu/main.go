// xiaoyu is a push-less voice assistant: it records a fixed window
// from the microphone, transcribes it, asks the chat model for a
// reply, synthesizes the reply and plays it back, in an endless loop.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/xiaoyulabs/go-xiaoyu/internal/config"
	"github.com/xiaoyulabs/go-xiaoyu/internal/log"
	"github.com/xiaoyulabs/go-xiaoyu/pkg/asr"
	"github.com/xiaoyulabs/go-xiaoyu/pkg/audioio"
	"github.com/xiaoyulabs/go-xiaoyu/pkg/chat"
	"github.com/xiaoyulabs/go-xiaoyu/pkg/pipeline"
	"github.com/xiaoyulabs/go-xiaoyu/pkg/tts"
	"github.com/xiaoyulabs/go-xiaoyu/pkg/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "xiaoyu:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to YAML config file")
	provider := flag.String("asr", "", "ASR provider: baidu or ifly (overrides config)")
	webAddr := flag.String("web", "", "Dashboard listen address (overrides config)")
	flag.Parse()

	// Credentials usually live in a local .env during development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *provider != "" {
		cfg.ASR.Provider = *provider
	}
	if *webAddr != "" {
		cfg.Web.Enabled = true
		cfg.Web.Addr = *webAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Init(cfg.LogLevel)
	logger := log.L()

	audioCfg := audioio.DefaultConfig()
	audioCfg.Backend = audioio.Backend(cfg.Audio.Backend)
	audioCfg.Device = cfg.Audio.Device
	audioCfg.SampleRate = cfg.Audio.SampleRate

	source, err := audioio.NewSource(audioCfg, logger)
	if err != nil {
		return fmt.Errorf("open capture device: %w", err)
	}
	defer source.Close()

	sink, err := audioio.NewSink(audioCfg, logger)
	if err != nil {
		return fmt.Errorf("open playback device: %w", err)
	}
	defer sink.Close()

	backend, gate, err := buildBackend(cfg, logger)
	if err != nil {
		return err
	}

	chatClient, err := chat.NewClient(
		chat.WithAPIKey(cfg.Chat.APIKey),
		chat.WithBaseURL(cfg.Chat.BaseURL),
		chat.WithModel(cfg.Chat.Model),
		chat.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	session := chat.NewSession(chatClient,
		chat.WithSystemPrompt(cfg.Chat.SystemPrompt),
		chat.WithLogger(logger),
	)

	synth, err := tts.NewEndpointChain(cfg.TTS.Endpoints,
		tts.WithLanguage(cfg.TTS.Language),
		tts.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer synth.Close()

	opts := []pipeline.Option{
		pipeline.WithRecordDuration(time.Duration(cfg.Pipeline.RecordSeconds) * time.Second),
		pipeline.WithGate(gate),
		pipeline.WithLogger(logger),
	}
	if cfg.Pipeline.TranscriptLog != "" {
		opts = append(opts, pipeline.WithTranscriptPath(cfg.Pipeline.TranscriptLog))
	}

	var dashboard *web.Server
	if cfg.Web.Enabled {
		dashboard = web.NewServer(cfg.Web.Addr, logger)
		dashboard.SetBackend(backend.Name())
		dashboard.StartAsync()
		defer dashboard.Shutdown()
		opts = append(opts, pipeline.WithObserver(dashboard))
	}

	orch, err := pipeline.New(source, sink, backend, session, synth, opts...)
	if err != nil {
		return err
	}
	defer orch.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildBackend constructs the configured recognition backend and its
// acceptance rules.
func buildBackend(cfg config.Config, logger *slog.Logger) (asr.Backend, asr.Rules, error) {
	switch cfg.ASR.Provider {
	case "baidu":
		opts := []asr.Option{
			asr.WithAPIKey(cfg.ASR.Baidu.APIKey),
			asr.WithAPISecret(cfg.ASR.Baidu.SecretKey),
			asr.WithLogger(logger),
		}
		if cfg.ASR.Baidu.TokenURL != "" {
			opts = append(opts, asr.WithTokenURL(cfg.ASR.Baidu.TokenURL))
		}
		if cfg.ASR.Baidu.ASRURL != "" {
			opts = append(opts, asr.WithRecognizeURL(cfg.ASR.Baidu.ASRURL))
		}
		if cfg.ASR.Baidu.CUID != "" {
			opts = append(opts, asr.WithCUID(cfg.ASR.Baidu.CUID))
		}
		backend, err := asr.NewBaidu(opts...)
		if err != nil {
			return nil, asr.Rules{}, err
		}
		return backend, asr.BaiduRules(), nil

	case "ifly":
		uploader := asr.NewXfyunUploader(
			cfg.ASR.Ifly.AppID,
			cfg.ASR.Ifly.APIKey,
			cfg.ASR.Ifly.APISecret,
			cfg.ASR.Ifly.UploadURL,
			logger,
		)
		opts := []asr.Option{
			asr.WithAppID(cfg.ASR.Ifly.AppID),
			asr.WithAPIKey(cfg.ASR.Ifly.APIKey),
			asr.WithAPISecret(cfg.ASR.Ifly.APISecret),
			asr.WithUploader(uploader),
			asr.WithLogger(logger),
		}
		if cfg.ASR.Ifly.Host != "" {
			opts = append(opts, asr.WithHost(cfg.ASR.Ifly.Host))
		}
		backend, err := asr.NewIfly(opts...)
		if err != nil {
			return nil, asr.Rules{}, err
		}
		return backend, asr.IflyRules(), nil

	default:
		return nil, asr.Rules{}, fmt.Errorf("unknown ASR provider %q", cfg.ASR.Provider)
	}
}
