// Chipi - a voice companion for a potted plant with feelings
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chipilabs/chipi/internal/config"
	"github.com/chipilabs/chipi/internal/devicectx"
	"github.com/chipilabs/chipi/internal/llm"
	"github.com/chipilabs/chipi/internal/logging"
	"github.com/chipilabs/chipi/internal/memory"
	"github.com/chipilabs/chipi/internal/persona"
	"github.com/chipilabs/chipi/internal/session"
	"github.com/chipilabs/chipi/internal/speech"
	"github.com/chipilabs/chipi/internal/tone"
)

var freshMemory bool

var rootCmd = &cobra.Command{
	Use:   "chipi",
	Short: "Chipi voice companion",
	Long: `Chipi is a voice-driven companion tied to a plant device.

It keeps a rolling dialogue history, augments its persona with live sensor
readings from the device database, and answers through a speech vendor with
an expressive style picked from what you said.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the conversation loop with the configured speech vendor",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConversation(cmd.Context(), "")
	},
}

var supertonCmd = &cobra.Command{
	Use:   "superton",
	Short: "Start the conversation loop with Superton speech and dynamic tone",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConversation(cmd.Context(), "superton")
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the persisted dialogue history",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()
		if err := app.manager.Reset(); err != nil {
			return fmt.Errorf("failed to reset memory: %w", err)
		}
		fmt.Println("memory cleared")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&freshMemory, "fresh", false, "start with a fresh dialogue history")
	rootCmd.AddCommand(runCmd, supertonCmd, resetCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app wires the conversation core together and owns external resources.
type app struct {
	cfg      *config.Config
	log      *logging.Logger
	tones    *tone.Selector
	composer *persona.Composer
	resolver devicectx.Resolver
	manager  *session.Manager
	watcher  *config.Watcher
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logging.New(&logging.Config{
		LogDir:  cfg.Logging.Dir,
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
	})
	if err != nil {
		return nil, err
	}
	logger := log.Zerolog()

	tones := tone.NewSelector(tone.Keywords{
		Sad:         cfg.Keywords.Sad,
		Temperature: cfg.Keywords.Temperature,
		Humidity:    cfg.Keywords.Humidity,
	})
	composer := persona.NewComposer(persona.Registry(cfg.Persona.Templates))

	client, err := buildClient(ctx, logger, cfg)
	if err != nil {
		log.Close()
		return nil, err
	}

	// The resolver is acquired here and released by Close so its lifetime
	// matches the conversation loop, not a finalizer.
	var resolver devicectx.Resolver
	if cfg.Device.DatabasePath != "" {
		r, err := devicectx.OpenSQLite(cfg.Device.DatabasePath, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Device database unavailable, continuing without context")
		} else {
			resolver = r
		}
	}

	store := memory.NewStore(cfg.Memory.Path, logger)
	manager := session.NewManager(session.Config{
		MaxTokens:      cfg.LLM.MaxTokens,
		Temperature:    cfg.LLM.Temperature,
		TopP:           cfg.LLM.TopP,
		RequestTimeout: cfg.LLM.Timeout,
	}, store, composer, tones, resolver, client, logger)

	if freshMemory {
		if err := manager.Reset(); err != nil {
			logger.Warn().Err(err).Msg("Failed to clear memory")
		}
	}

	watcher, err := config.Watch(logger, func(newCfg *config.Config) {
		composer.Replace(persona.Registry(newCfg.Persona.Templates))
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Persona live reload disabled")
	}

	return &app{
		cfg:      cfg,
		log:      log,
		tones:    tones,
		composer: composer,
		resolver: resolver,
		manager:  manager,
		watcher:  watcher,
	}, nil
}

func buildClient(ctx context.Context, logger zerolog.Logger, cfg *config.Config) (llm.Client, error) {
	switch cfg.LLM.Backend {
	case "", "azure":
		return llm.NewAzureClient(logger, &llm.AzureConfig{
			Endpoint:   cfg.LLM.AzureEndpoint,
			APIKey:     cfg.LLM.AzureAPIKey,
			APIVersion: cfg.LLM.AzureAPIVersion,
			Deployment: cfg.LLM.AzureDeployment,
			Timeout:    cfg.LLM.Timeout,
		}), nil
	case "gemini":
		return llm.NewGeminiClient(ctx, logger, &llm.GeminiConfig{
			APIKey: cfg.LLM.GeminiAPIKey,
			Model:  cfg.LLM.GeminiModel,
		})
	default:
		return nil, fmt.Errorf("%w: %s", llm.ErrUnknownBackend, cfg.LLM.Backend)
	}
}

func buildEngine(log *logging.Logger, cfg *config.Config, provider string) speech.Engine {
	logger := log.Zerolog()
	recognizer := stdinRecognizer(os.Stdin)

	switch provider {
	case "superton":
		return speech.NewSupertonEngine(logger, &speech.SupertonConfig{
			APIKey:   cfg.Speech.SupertonAPIKey,
			Voice:    cfg.Speech.SupertonVoice,
			Language: cfg.Speech.Language,
		}, nil, recognizer)
	default:
		return speech.NewAzureEngine(logger, &speech.AzureConfig{
			Region: cfg.Speech.AzureRegion,
			APIKey: cfg.Speech.AzureAPIKey,
			Voice:  cfg.Speech.AzureVoice,
		}, nil, recognizer)
	}
}

func (a *app) Close() {
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.resolver != nil {
		a.resolver.Close()
	}
	a.log.Close()
}
