package questionnaire

import (
	"errors"
	"testing"

	"geoportal-service/internal/domain"
)

func TestNewCatalogRejectsMalformedData(t *testing.T) {
	cases := []struct {
		name      string
		topics    []string
		questions []domain.Question
	}{
		{"no topics", nil, nil},
		{"duplicate topic", []string{"a", "a"}, nil},
		{"weight above range", []string{"a"}, []domain.Question{
			{ID: "q", Options: []domain.Option{{ID: "o", TopicMatches: map[string]int{"a": 101}}}},
		}},
		{"negative weight", []string{"a"}, []domain.Question{
			{ID: "q", Options: []domain.Option{{ID: "o", TopicMatches: map[string]int{"a": -1}}}},
		}},
		{"duplicate question", []string{"a"}, []domain.Question{{ID: "q"}, {ID: "q"}}},
		{"duplicate option", []string{"a"}, []domain.Question{
			{ID: "q", Options: []domain.Option{{ID: "o"}, {ID: "o"}}},
		}},
		{"empty option id", []string{"a"}, []domain.Question{
			{ID: "q", Options: []domain.Option{{ID: ""}}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCatalog(tc.topics, tc.questions)
			if !errors.Is(err, domain.ErrInvalidCatalog) {
				t.Fatalf("expected ErrInvalidCatalog, got %v", err)
			}
		})
	}
}

func TestNewCatalogAcceptsUnknownTopicWeights(t *testing.T) {
	_, err := NewCatalog([]string{"a"}, []domain.Question{
		{ID: "q", Options: []domain.Option{{ID: "o", TopicMatches: map[string]int{"elsewhere": 50}}}},
	})
	if err != nil {
		t.Fatalf("unknown topic weights are dropped at scoring time, got %v", err)
	}
}

func TestCatalogIsNotAliasedToInput(t *testing.T) {
	questions := []domain.Question{
		{ID: "q", Options: []domain.Option{{ID: "o", TopicMatches: map[string]int{"a": 10}}}},
	}
	c := MustNewCatalog([]string{"a"}, questions)
	questions[0].Options[0].TopicMatches["a"] = 100

	result, err := c.Score([]domain.UserAnswer{{QuestionID: "q", SelectedOptionID: "o"}})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if result.TopicMatches["a"] != 10 {
		t.Fatalf("catalog mutated through caller slice: %d", result.TopicMatches["a"])
	}
}

func TestResolveReportsMissingIDs(t *testing.T) {
	c := MustNewCatalog([]string{"a"}, []domain.Question{{ID: "q", Options: []domain.Option{{ID: "o"}}}})

	if _, _, err := c.Resolve(domain.UserAnswer{QuestionID: "x", SelectedOptionID: "o"}); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
	if _, _, err := c.Resolve(domain.UserAnswer{QuestionID: "q", SelectedOptionID: "x"}); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected option not found, got %v", err)
	}
	if c.Position("q") != 0 || c.Position("x") != -1 {
		t.Fatalf("unexpected positions")
	}
}

func TestFormattingHelpers(t *testing.T) {
	if MatchLevel(80) != LevelHigh || MatchLevel(79) != LevelMedium || MatchLevel(50) != LevelMedium || MatchLevel(49) != LevelLow {
		t.Fatalf("match level thresholds wrong")
	}
	if got := FormatMatchPercentage(42); got != "42% Match" {
		t.Fatalf("unexpected format %q", got)
	}
	answers := []domain.UserAnswer{{QuestionID: "q1", SelectedOptionID: "o"}, {QuestionID: "q2", SelectedOptionID: ""}}
	if IsComplete(answers, 2) {
		t.Fatalf("empty option should not be complete")
	}
	answers[1].SelectedOptionID = "o"
	if !IsComplete(answers, 2) || IsComplete(answers, 3) {
		t.Fatalf("completion check wrong")
	}
}
