// Package questionnaire scores questionnaire answers against a static catalog
// of questions, options and topics.
package questionnaire

import (
	"fmt"

	"geoportal-service/internal/domain"
)

const (
	minWeight = 0
	maxWeight = 100
)

// Catalog is an immutable, validated question set. It is safe for concurrent use.
type Catalog struct {
	topics     []string
	topicIndex map[string]int
	questions  []domain.Question
	byID       map[string]*domain.Question
}

// NewCatalog validates the questionnaire data and builds lookup indexes.
// Weights outside [0,100], empty or duplicate IDs and an empty topic set are
// rejected with ErrInvalidCatalog. Option weights naming topics outside the
// topic set are accepted and dropped at scoring time.
func NewCatalog(topics []string, questions []domain.Question) (*Catalog, error) {
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: no topics", domain.ErrInvalidCatalog)
	}

	c := &Catalog{
		topics:     append([]string(nil), topics...),
		topicIndex: make(map[string]int, len(topics)),
		questions:  make([]domain.Question, len(questions)),
		byID:       make(map[string]*domain.Question, len(questions)),
	}
	for i, id := range topics {
		if id == "" {
			return nil, fmt.Errorf("%w: empty topic id at %d", domain.ErrInvalidCatalog, i)
		}
		if _, dup := c.topicIndex[id]; dup {
			return nil, fmt.Errorf("%w: duplicate topic %q", domain.ErrInvalidCatalog, id)
		}
		c.topicIndex[id] = i
	}

	for i, q := range questions {
		if q.ID == "" {
			return nil, fmt.Errorf("%w: empty question id at %d", domain.ErrInvalidCatalog, i)
		}
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question %q", domain.ErrInvalidCatalog, q.ID)
		}
		if err := validateOptions(q); err != nil {
			return nil, err
		}
		c.questions[i] = cloneQuestion(q)
		c.byID[q.ID] = &c.questions[i]
	}
	return c, nil
}

// MustNewCatalog is NewCatalog for data known to be valid at build time.
func MustNewCatalog(topics []string, questions []domain.Question) *Catalog {
	c, err := NewCatalog(topics, questions)
	if err != nil {
		panic(err)
	}
	return c
}

func validateOptions(q domain.Question) error {
	seen := make(map[string]struct{}, len(q.Options))
	for i, opt := range q.Options {
		if opt.ID == "" {
			return fmt.Errorf("%w: question %q has empty option id at %d", domain.ErrInvalidCatalog, q.ID, i)
		}
		if _, dup := seen[opt.ID]; dup {
			return fmt.Errorf("%w: question %q has duplicate option %q", domain.ErrInvalidCatalog, q.ID, opt.ID)
		}
		seen[opt.ID] = struct{}{}
		for topicID, weight := range opt.TopicMatches {
			if weight < minWeight || weight > maxWeight {
				return fmt.Errorf("%w: %s/%s weight %d for %q outside [%d,%d]",
					domain.ErrInvalidCatalog, q.ID, opt.ID, weight, topicID, minWeight, maxWeight)
			}
		}
	}
	return nil
}

func cloneQuestion(q domain.Question) domain.Question {
	out := domain.Question{ID: q.ID, Text: q.Text, Options: make([]domain.Option, len(q.Options))}
	for i, opt := range q.Options {
		matches := make(map[string]int, len(opt.TopicMatches))
		for k, v := range opt.TopicMatches {
			matches[k] = v
		}
		out.Options[i] = domain.Option{ID: opt.ID, Text: opt.Text, TopicMatches: matches}
	}
	return out
}

// Topics returns the topic IDs in catalog order.
func (c *Catalog) Topics() []string {
	return append([]string(nil), c.topics...)
}

// Questions returns a copy of the question set in catalog order.
func (c *Catalog) Questions() []domain.Question {
	out := make([]domain.Question, len(c.questions))
	for i, q := range c.questions {
		out[i] = cloneQuestion(q)
	}
	return out
}

// Len is the number of questions.
func (c *Catalog) Len() int {
	return len(c.questions)
}

// HasTopic reports whether id is part of the scored topic set.
func (c *Catalog) HasTopic(id string) bool {
	_, ok := c.topicIndex[id]
	return ok
}

// Position returns the index of the question in catalog order, or -1.
func (c *Catalog) Position(questionID string) int {
	for i := range c.questions {
		if c.questions[i].ID == questionID {
			return i
		}
	}
	return -1
}

// Resolve finds the question and option an answer points at.
func (c *Catalog) Resolve(answer domain.UserAnswer) (*domain.Question, *domain.Option, error) {
	q, ok := c.byID[answer.QuestionID]
	if !ok {
		return nil, nil, domain.ErrQuestionNotFound
	}
	for i := range q.Options {
		if q.Options[i].ID == answer.SelectedOptionID {
			return q, &q.Options[i], nil
		}
	}
	return q, nil, domain.ErrOptionNotFound
}
