package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/spigell/recruit-panel/internal/evaluation"
	"github.com/spigell/recruit-panel/internal/ingestion"
	"github.com/spigell/recruit-panel/internal/prompt"
	"github.com/spigell/recruit-panel/internal/scoring"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "recruit-panel"
)

type Config struct {
	Catalog    string             `mapstructure:"catalog"`
	AI         *AIConfig          `mapstructure:"ai"`
	Scoring    scoring.Thresholds `mapstructure:"scoring"`
	Limits     prompt.Limits      `mapstructure:"limits"`
	Evaluation *EvaluationConfig  `mapstructure:"evaluation"`
	Debate     *DebateConfig      `mapstructure:"debate"`
	Store      *StoreConfig       `mapstructure:"store"`
	Notify     *NotifyConfig      `mapstructure:"notify"`
	Objects    *ObjectsConfig     `mapstructure:"objects"`
	Metrics    *MetricsConfig     `mapstructure:"metrics"`
	Judge      *JudgeConfig       `mapstructure:"judge"`
}

type AIConfig struct {
	Provider       string        `mapstructure:"provider"`
	Model          string        `mapstructure:"model"`
	MaxInputTokens int           `mapstructure:"max-input-tokens"`
	MaxLogLength   int           `mapstructure:"max-log-length"`
	CallTimeout    time.Duration `mapstructure:"call-timeout"`
	OpenAI         *KeyConfig    `mapstructure:"openai"`
	Gemini         *KeyConfig    `mapstructure:"gemini"`
}

// KeyConfig holds a provider API key inline or in a file.
type KeyConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	BaseURL    string `mapstructure:"base-url"`
}

type EvaluationConfig struct {
	evaluation.Settings `mapstructure:",squash"`
	Timeout             time.Duration `mapstructure:"timeout"`
}

type DebateConfig struct {
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max-tokens"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type StoreConfig struct {
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
	DSNFile string `mapstructure:"dsn-file"`
}

type NotifyConfig struct {
	AMQP *struct {
		URL      string `mapstructure:"url"`
		Exchange string `mapstructure:"exchange"`
	} `mapstructure:"amqp"`
	Webhook *struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"webhook"`
}

type ObjectsConfig struct {
	ingestion.ObjectConfig `mapstructure:",squash"`
	Enabled                bool `mapstructure:"enabled"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type JudgeConfig struct {
	Capacity int `mapstructure:"capacity"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "recruit-panel lets a panel of AI personas evaluate and debate a candidate for a job",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is recruit-panel.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("catalog", "catalog.yaml")
	viper.SetDefault("ai.provider", "openai")
	viper.SetDefault("ai.max-input-tokens", 4000)
	viper.SetDefault("ai.call-timeout", time.Minute)

	thresholds := scoring.DefaultThresholds()
	viper.SetDefault("scoring.strong-fit", thresholds.StrongFit)
	viper.SetDefault("scoring.uncertain", thresholds.Uncertain)

	limits := prompt.DefaultLimits()
	viper.SetDefault("limits.resume-chars", limits.ResumeChars)
	viper.SetDefault("limits.motivation-chars", limits.MotivationChars)
	viper.SetDefault("limits.job-description-chars", limits.JobDescriptionChars)
	viper.SetDefault("limits.company-note-chars", limits.CompanyNoteChars)
	viper.SetDefault("limits.user-message-chars", limits.UserMessageChars)

	evaluationDefaults := evaluation.DefaultSettings()
	viper.SetDefault("evaluation.temperature", evaluationDefaults.Temperature)
	viper.SetDefault("evaluation.max-tokens", evaluationDefaults.MaxTokens)
	viper.SetDefault("evaluation.parallelism", evaluationDefaults.Parallelism)
	viper.SetDefault("evaluation.timeout", 2*time.Minute)

	viper.SetDefault("debate.temperature", 0.8)
	viper.SetDefault("debate.max-tokens", 220)
	viper.SetDefault("debate.timeout", 5*time.Minute)

	viper.SetDefault("store.driver", "memory")
	viper.SetDefault("notify.webhook.timeout", 10*time.Second)
}

func initConfig() {
	// A missing .env is fine; a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	viper.SetEnvPrefix("RECRUIT_PANEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// version works without a config file.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal(err)
		}
		return
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(app)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}
	if config == nil {
		return nil, errors.New("config is empty")
	}

	return config, nil
}
