package questionnaire

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"geoportal-service/internal/domain"
)

// Policy controls how answers that do not resolve against the catalog are handled.
type Policy int

const (
	// Lenient skips unresolved answers and unknown topics, recording each as an anomaly.
	Lenient Policy = iota
	// Strict fails the whole computation with an *UnresolvedError.
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "lenient"
}

// DefaultTop is the number of recommended topics.
const DefaultTop = 3

type scoreConfig struct {
	policy Policy
	top    int
}

type ScoreOption func(*scoreConfig)

func WithPolicy(p Policy) ScoreOption {
	return func(c *scoreConfig) { c.policy = p }
}

// WithTop overrides how many topics are recommended; values below 1 are ignored.
func WithTop(n int) ScoreOption {
	return func(c *scoreConfig) {
		if n > 0 {
			c.top = n
		}
	}
}

// UnresolvedError lists every anomaly found by a strict scoring run.
type UnresolvedError struct {
	Anomalies []domain.Anomaly
}

func (e *UnresolvedError) Error() string {
	parts := make([]string, 0, len(e.Anomalies))
	for _, a := range e.Anomalies {
		switch a.Kind {
		case domain.AnomalyUnknownQuestion:
			parts = append(parts, "question "+a.QuestionID)
		case domain.AnomalyUnknownOption:
			parts = append(parts, "option "+a.QuestionID+"/"+a.OptionID)
		case domain.AnomalyUnknownTopic:
			parts = append(parts, "topic "+a.TopicID+" in "+a.QuestionID+"/"+a.OptionID)
		}
	}
	return fmt.Sprintf("%s: %s", domain.ErrUnresolvedAnswers, strings.Join(parts, ", "))
}

func (e *UnresolvedError) Unwrap() error {
	return domain.ErrUnresolvedAnswers
}

// Dedupe keeps one answer per question. A later answer overwrites an earlier
// one in place, so the first-seen question order is preserved.
func Dedupe(answers []domain.UserAnswer) []domain.UserAnswer {
	out := make([]domain.UserAnswer, 0, len(answers))
	pos := make(map[string]int, len(answers))
	for _, a := range answers {
		if i, ok := pos[a.QuestionID]; ok {
			out[i] = a
			continue
		}
		pos[a.QuestionID] = len(out)
		out = append(out, a)
	}
	return out
}

// Score accumulates option weights per topic across the answers, normalizes
// them to percentages of answers×100 and ranks the top topics. It has no side
// effects; the same answer set always yields the same result.
//
// Unresolved answers still count towards the denominator. With zero answers
// every topic scores 0 and the first topics in catalog order are recommended.
func (c *Catalog) Score(answers []domain.UserAnswer, opts ...ScoreOption) (domain.QuestionnaireResult, error) {
	cfg := scoreConfig{policy: Lenient, top: DefaultTop}
	for _, opt := range opts {
		opt(&cfg)
	}

	deduped := Dedupe(answers)
	acc := make([]int, len(c.topics))
	var anomalies []domain.Anomaly

	for _, answer := range deduped {
		q, option, err := c.Resolve(answer)
		if err != nil {
			kind := domain.AnomalyUnknownQuestion
			if errors.Is(err, domain.ErrOptionNotFound) {
				kind = domain.AnomalyUnknownOption
			}
			anomalies = append(anomalies, domain.Anomaly{
				Kind:       kind,
				QuestionID: answer.QuestionID,
				OptionID:   answer.SelectedOptionID,
			})
			continue
		}
		for topicID, weight := range option.TopicMatches {
			idx, ok := c.topicIndex[topicID]
			if !ok {
				anomalies = append(anomalies, domain.Anomaly{
					Kind:       domain.AnomalyUnknownTopic,
					QuestionID: q.ID,
					OptionID:   option.ID,
					TopicID:    topicID,
				})
				continue
			}
			acc[idx] += weight
		}
	}

	if cfg.policy == Strict && len(anomalies) > 0 {
		sortAnomalies(anomalies)
		return domain.QuestionnaireResult{}, &UnresolvedError{Anomalies: anomalies}
	}

	n := len(deduped)
	result := domain.QuestionnaireResult{
		TopicMatches:         make(map[string]int, len(c.topics)),
		Matches:              make([]domain.TopicMatch, len(c.topics)),
		RecommendedResources: []string{},
		Answered:             n,
	}
	for i, topicID := range c.topics {
		pct := percentage(acc[i], n)
		result.TopicMatches[topicID] = pct
		result.Matches[i] = domain.TopicMatch{TopicID: topicID, Percentage: pct, Level: MatchLevel(pct)}
	}
	result.RecommendedTopics = rankTop(result.Matches, cfg.top)
	if len(anomalies) > 0 {
		sortAnomalies(anomalies)
		result.Anomalies = anomalies
	}
	return result, nil
}

// percentage is round-half-up of total/(n×100)×100, i.e. of total/n.
func percentage(total, n int) int {
	if n == 0 {
		return 0
	}
	return (2*total + n) / (2 * n)
}

func rankTop(matches []domain.TopicMatch, top int) []string {
	ranked := append([]domain.TopicMatch(nil), matches...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Percentage > ranked[j].Percentage
	})
	if top > len(ranked) {
		top = len(ranked)
	}
	out := make([]string, top)
	for i := 0; i < top; i++ {
		out[i] = ranked[i].TopicID
	}
	return out
}

// sortAnomalies gives anomalies a stable order; weight maps iterate randomly.
func sortAnomalies(anomalies []domain.Anomaly) {
	sort.SliceStable(anomalies, func(i, j int) bool {
		a, b := anomalies[i], anomalies[j]
		if a.QuestionID != b.QuestionID {
			return a.QuestionID < b.QuestionID
		}
		if a.OptionID != b.OptionID {
			return a.OptionID < b.OptionID
		}
		return a.TopicID < b.TopicID
	})
}
