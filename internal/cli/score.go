package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"geoportal-service/internal/app"
	"geoportal-service/internal/domain"
	"geoportal-service/internal/infra/memory"
	"geoportal-service/internal/questionnaire"
	"github.com/spf13/cobra"
)

// NewScoreCmd scores answers offline against the bundled catalog, or one
// given by --file, and prints the result as JSON.
func NewScoreCmd() *cobra.Command {
	var (
		file    string
		answers []string
		strict  bool
	)
	cmd := &cobra.Command{
		Use:     "score",
		Short:   "Score questionnaire answers and print recommendations",
		Example: "  geoportal-service score --answer skills=gis --answer career=government",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseAnswers(answers)
			if err != nil {
				return err
			}
			catalog, err := readCatalog(file)
			if err != nil {
				return err
			}
			qc, err := questionnaire.NewCatalog(catalog.Questionnaire.Topics, catalog.Questionnaire.Questions)
			if err != nil {
				return err
			}

			policy := questionnaire.Lenient
			if strict {
				policy = questionnaire.Strict
			}
			repo := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(catalog), time.Minute)
			service := app.NewQuestionnaireService(qc, app.NewCatalogService(repo), nil, app.WithScorePolicy(policy))

			result, err := service.Score(cmd.Context(), parsed)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML catalog to score against instead of the bundled seed")
	cmd.Flags().StringArrayVar(&answers, "answer", nil, "answer as questionId=optionId, repeatable")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on answers that do not match the catalog")
	return cmd
}

func parseAnswers(raw []string) ([]domain.UserAnswer, error) {
	out := make([]domain.UserAnswer, 0, len(raw))
	for _, r := range raw {
		question, option, ok := strings.Cut(r, "=")
		if !ok || question == "" {
			return nil, fmt.Errorf("invalid answer %q, want questionId=optionId", r)
		}
		out = append(out, domain.UserAnswer{QuestionID: question, SelectedOptionID: option})
	}
	return out, nil
}
