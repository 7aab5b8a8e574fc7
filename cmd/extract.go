package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spigell/recruit-panel/internal/logger"
	"github.com/spigell/recruit-panel/internal/recruitment"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file or s3://bucket/key>",
	Short: "Print the text of a resume the way the panel reads it",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		extract(args[0])
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func extract(source string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	var objects *ObjectsConfig
	if config, err := getConfig(); err == nil {
		objects = config.Objects
	}

	loader, err := newLoader(ctx, objects, logger)
	if err != nil {
		logger.Fatal("preparing the loader", zap.Error(err))
	}

	text, err := loader.Load(ctx, source)
	if err != nil {
		logger.Fatal("extracting resume", zap.String("source", source), zap.Error(err))
	}

	if err := recruitment.ValidateResume(text); err != nil {
		logger.Warn("resume would be rejected", zap.Error(err))
	}

	fmt.Println(text)
}
