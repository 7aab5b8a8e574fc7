package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/recruit-panel/internal/ai"
	"github.com/spigell/recruit-panel/internal/ai/gemini"
	"github.com/spigell/recruit-panel/internal/ai/openai"
	"github.com/spigell/recruit-panel/internal/catalog"
	"github.com/spigell/recruit-panel/internal/debate"
	"github.com/spigell/recruit-panel/internal/evaluation"
	"github.com/spigell/recruit-panel/internal/ingestion"
	"github.com/spigell/recruit-panel/internal/judge"
	"github.com/spigell/recruit-panel/internal/metrics"
	"github.com/spigell/recruit-panel/internal/notify"
	"github.com/spigell/recruit-panel/internal/panel"
	"github.com/spigell/recruit-panel/internal/prompt"
	"github.com/spigell/recruit-panel/internal/secrets"
	"github.com/spigell/recruit-panel/internal/store"

	"go.uber.org/zap"
)

// application is everything a command needs, built once from the config.
type application struct {
	config  *Config
	logger  *zap.Logger
	catalog *catalog.Catalog
	service *panel.Service
	history *judge.History
	metrics *metrics.Recorder
	closers []func() error
}

func newApplication(ctx context.Context, config *Config, logger *zap.Logger) (*application, error) {
	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	a := &application{
		config:  config,
		logger:  logger,
		metrics: metrics.New(),
	}

	cat, err := catalog.Load(config.Catalog)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	a.catalog = cat

	backend, err := newBackend(ctx, config.AI)
	if err != nil {
		return a, fmt.Errorf("building ai backend: %w", err)
	}

	gateway := ai.NewGateway(backend, logger,
		ai.WithMaxInputTokens(config.AI.MaxInputTokens),
		ai.WithMaxLogLength(config.AI.MaxLogLength),
		ai.WithMetrics(a.metrics),
	)

	assembler := prompt.NewAssembler(config.Scoring.Normalize(), config.Limits.Normalize())

	capacity := judge.DefaultCapacity
	if config.Judge != nil && config.Judge.Capacity > 0 {
		capacity = config.Judge.Capacity
	}
	a.history = judge.NewHistory(capacity)

	evalSettings := evaluation.DefaultSettings()
	timeouts := panel.DefaultTimeouts()
	if c := config.Evaluation; c != nil {
		evalSettings = c.Settings
		if c.Timeout > 0 {
			timeouts.Evaluation = c.Timeout
		}
	}
	evalSettings.CallTimeout = config.AI.CallTimeout

	debateSettings := debate.DefaultSettings()
	if c := config.Debate; c != nil {
		debateSettings.Model = c.Model
		if c.Temperature > 0 {
			debateSettings.Temperature = c.Temperature
		}
		if c.MaxTokens > 0 {
			debateSettings.MaxTokens = c.MaxTokens
		}
		if c.Timeout > 0 {
			timeouts.Debate = c.Timeout
		}
	}
	debateSettings.CallTimeout = config.AI.CallTimeout

	loader, err := newLoader(ctx, config.Objects, logger)
	if err != nil {
		return a, err
	}

	results, err := a.newResults(ctx)
	if err != nil {
		return a, err
	}

	a.service = panel.New(cat,
		evaluation.New(gateway, assembler, evalSettings, logger,
			evaluation.WithMetrics(a.metrics),
			evaluation.WithHistory(a.history),
		),
		debate.New(gateway, assembler, debateSettings, logger, debate.WithMetrics(a.metrics)),
		logger,
		panel.WithResults(results),
		panel.WithResumeLoader(loader),
		panel.WithTimeouts(timeouts),
	)

	return a, nil
}

// newBackend picks the provider and resolves its API key.
func newBackend(ctx context.Context, cfg *AIConfig) (ai.Backend, error) {
	if cfg == nil {
		return nil, errors.New("ai configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	switch provider {
	case "", openai.ProviderName:
		key := keyConfig(cfg.OpenAI)
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: key.APIKey,
			File:  key.APIKeyFile,
			Env:   "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.openai.api-key-file or OPENAI_API_KEY)", err)
		}
		return openai.New(apiKey, key.BaseURL, cfg.Model)
	case gemini.ProviderName:
		key := keyConfig(cfg.Gemini)
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: key.APIKey,
			File:  key.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
		}
		return gemini.NewGenerator(ctx, apiKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

func keyConfig(k *KeyConfig) KeyConfig {
	if k == nil {
		return KeyConfig{}
	}
	return *k
}

func newLoader(ctx context.Context, cfg *ObjectsConfig, logger *zap.Logger) (*ingestion.Loader, error) {
	if cfg == nil || !cfg.Enabled {
		return ingestion.NewLoader(logger), nil
	}

	client, err := ingestion.NewS3Client(ctx, cfg.ObjectConfig)
	if err != nil {
		return nil, fmt.Errorf("building object storage client: %w", err)
	}
	return ingestion.NewLoader(logger, ingestion.WithObjects(client)), nil
}

// newResults builds the result store and the notification sinks behind it.
func (a *application) newResults(ctx context.Context) (*store.Adapter, error) {
	var backing store.Store

	driver := "memory"
	if a.config.Store != nil && a.config.Store.Driver != "" {
		driver = strings.ToLower(a.config.Store.Driver)
	}

	switch driver {
	case "memory":
		backing = store.NewMemoryStore(nil)
	case "postgres":
		dsn, err := secrets.Load(secrets.Source{
			Name:  "postgres dsn",
			Value: a.config.Store.DSN,
			File:  a.config.Store.DSNFile,
			Env:   "RECRUIT_PANEL_DSN",
		})
		if err != nil {
			return nil, err
		}
		pg, err := store.OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		backing = pg
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}

	var sinks notify.Multi
	if n := a.config.Notify; n != nil {
		if n.AMQP != nil && n.AMQP.URL != "" {
			broker, err := notify.DialAMQP(n.AMQP.URL, n.AMQP.Exchange)
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, broker.Close)
			sinks = append(sinks, broker)
		}
		if n.Webhook != nil && n.Webhook.URL != "" {
			sinks = append(sinks, notify.NewWebhook(n.Webhook.URL, n.Webhook.Timeout))
		}
	}

	var notifier notify.Notifier
	if len(sinks) > 0 {
		notifier = sinks
	}

	a.logger.Debug("result store ready",
		zap.String("driver", driver),
		zap.Int("notification_sinks", len(sinks)),
	)
	return store.NewAdapter(backing, a.catalog, notifier, a.logger), nil
}

// Close flushes metrics and releases connections.
func (a *application) Close() {
	if a == nil {
		return
	}
	if a.config != nil && a.config.Metrics != nil {
		if err := a.metrics.WriteTextfile(a.config.Metrics.Textfile); err != nil {
			a.logger.Warn("writing metrics failed", zap.Error(err))
		}
	}
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			a.logger.Warn("closing resource failed", zap.Error(err))
		}
	}
}

// redacted hides secrets before the config is logged.
func redacted(config *Config) *Config {
	if config == nil {
		return nil
	}
	c := *config
	if c.AI != nil {
		aiCopy := *c.AI
		aiCopy.OpenAI = redactKey(aiCopy.OpenAI)
		aiCopy.Gemini = redactKey(aiCopy.Gemini)
		c.AI = &aiCopy
	}
	if c.Store != nil && c.Store.DSN != "" {
		st := *c.Store
		st.DSN = "***"
		c.Store = &st
	}
	if c.Objects != nil && c.Objects.SecretKey != "" {
		obj := *c.Objects
		obj.SecretKey = "***"
		c.Objects = &obj
	}
	return &c
}

func redactKey(k *KeyConfig) *KeyConfig {
	if k == nil || k.APIKey == "" {
		return k
	}
	out := *k
	out.APIKey = "***"
	return &out
}
