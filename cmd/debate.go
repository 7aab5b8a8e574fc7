package cmd

import (
	"context"
	"log"

	"github.com/spigell/recruit-panel/internal/export"
	"github.com/spigell/recruit-panel/internal/logger"
	"github.com/spigell/recruit-panel/internal/panel"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var debateCmd = &cobra.Command{
	Use:   "debate",
	Short: "Run a moderated three round panel discussion about a candidate",
	Run: func(cmd *cobra.Command, _ []string) {
		runDebate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(debateCmd)

	debateCmd.Flags().StringP("candidate", "c", "", "candidate id")
	debateCmd.Flags().Bool("transcript", false, "print only the transcript instead of the whole result")
	addSubjectFlags(debateCmd)
	debateCmd.MarkFlagRequired("candidate")
}

func runDebate(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the debate", zap.String("version", version))

	a, err := newApplication(ctx, config, logger)
	defer a.Close()
	if err != nil {
		logger.Fatal("preparing the panel", zap.Error(err))
	}

	subject, err := subjectFromFlags(cmd, a)
	if err != nil {
		logger.Fatal("selecting personas", zap.Error(err))
	}
	subject.CandidateID = flagString(cmd, "candidate")

	result, err := a.service.Debate(ctx, panel.DebateRequest{Subject: subject})
	if err != nil {
		logger.Fatal("debate failed", zap.String("candidate_id", subject.CandidateID), zap.Error(err))
	}

	logger.Info("debate done",
		zap.String("candidate_id", subject.CandidateID),
		zap.String("verdict", result.FinalVerdict),
		zap.Int("messages", len(result.Transcript)),
		zap.Float64("total_seconds", result.Timing.Total),
	)

	var out any = result
	if only, _ := cmd.Flags().GetBool("transcript"); only {
		out = result.Transcript
	}
	if err := printJSON(out); err != nil {
		logger.Fatal("printing result", zap.Error(err))
	}

	if path := flagString(cmd, "export"); path != "" {
		cand, _ := a.catalog.Candidate(ctx, subject.CandidateID)
		job, _ := a.catalog.Job(ctx, resultJobID(subject.JobID, cand))
		if err := export.WriteDebate(path, export.Subject{Candidate: cand, Job: job}, result); err != nil {
			logger.Fatal("exporting result", zap.Error(err))
		}
		logger.Info("exported debate", zap.String("filename", path))
	}
}
