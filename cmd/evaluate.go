package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/spigell/recruit-panel/internal/export"
	"github.com/spigell/recruit-panel/internal/judge"
	"github.com/spigell/recruit-panel/internal/logger"
	"github.com/spigell/recruit-panel/internal/panel"
	"github.com/spigell/recruit-panel/internal/prompt"
	"github.com/spigell/recruit-panel/internal/scoring"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Let every selected persona score the candidate and merge the verdicts",
	Run: func(cmd *cobra.Command, _ []string) {
		evaluate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringSliceP("candidate", "c", nil, "candidate id, may be repeated to rank several candidates")
	evaluateCmd.Flags().String("strictness", "", "lenient, medium, strict or severe")
	addSubjectFlags(evaluateCmd)
	evaluateCmd.MarkFlagRequired("candidate")
}

func evaluate(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the evaluation", zap.String("version", version))

	strictness, err := prompt.ParseStrictness(flagString(cmd, "strictness"))
	if err != nil {
		logger.Fatal("parsing strictness", zap.Error(err))
	}

	a, err := newApplication(ctx, config, logger)
	defer a.Close()
	if err != nil {
		logger.Fatal("preparing the panel", zap.Error(err))
	}

	subject, err := subjectFromFlags(cmd, a)
	if err != nil {
		logger.Fatal("selecting personas", zap.Error(err))
	}

	candidates, _ := cmd.Flags().GetStringSlice("candidate")
	for _, id := range candidates {
		subject.CandidateID = id
		result, err := a.service.Evaluate(ctx, panel.EvaluateRequest{Subject: subject, Strictness: strictness})
		if err != nil {
			if errors.Is(err, panel.ErrMissingJob) {
				logger.Error("skipping candidate", zap.String("candidate_id", id), zap.Error(err),
					zap.String("hint", "pass --job or set job_id on the candidate"))
				continue
			}
			logger.Fatal("evaluation failed", zap.String("candidate_id", id), zap.Error(err))
		}

		logger.Info("evaluation done",
			zap.String("candidate_id", id),
			zap.String("score", scoring.Format(result.CombinedScore)),
			zap.String("recommendation", string(result.CombinedRecommendation)),
		)

		if err := printJSON(result); err != nil {
			logger.Fatal("printing result", zap.Error(err))
		}

		if path := flagString(cmd, "export"); path != "" {
			target := exportPath(path, id, len(candidates))
			cand, _ := a.catalog.Candidate(ctx, id)
			job, _ := a.catalog.Job(ctx, resultJobID(subject.JobID, cand))
			if err := export.WriteEvaluation(target, export.Subject{Candidate: cand, Job: job}, result); err != nil {
				logger.Fatal("exporting result", zap.Error(err))
			}
			logger.Info("exported evaluation", zap.String("filename", target))
		}
	}

	if len(candidates) > 1 {
		reportRanking(logger, a.history.Recent(len(candidates)))
	}
}

// reportRanking logs the candidates of this run from best to worst.
func reportRanking(logger *zap.Logger, entries []judge.Entry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	for i, e := range entries {
		logger.Info("ranking",
			zap.Int("place", i+1),
			zap.String("candidate_id", e.CandidateID),
			zap.String("job_id", e.JobID),
			zap.String("score", scoring.Format(e.Score)),
			zap.String("recommendation", string(e.Recommendation)),
		)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
