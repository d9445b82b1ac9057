package seed

import (
	"testing"

	"geoportal-service/internal/domain"
	"geoportal-service/internal/questionnaire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalogIsConsistent(t *testing.T) {
	catalog, err := Catalog()
	require.NoError(t, err)

	assert.Len(t, catalog.Topics, 10)
	assert.Len(t, catalog.Questionnaire.Topics, 10)
	assert.Len(t, catalog.Questionnaire.Questions, 4)

	topicIDs := make(map[string]bool)
	for _, topic := range catalog.Topics {
		topicIDs[topic.ID] = true
	}
	for _, id := range catalog.Questionnaire.Topics {
		assert.True(t, topicIDs[id], "questionnaire topic %q missing from topics", id)
	}

	resourceIDs := make(map[string]bool)
	for _, r := range catalog.Resources {
		resourceIDs[r.ID] = true
	}
	datasetIDs := make(map[string]bool)
	for _, d := range catalog.Datasets {
		datasetIDs[d.ID] = true
	}
	for _, topic := range catalog.Topics {
		for _, id := range topic.RelatedResources {
			assert.True(t, resourceIDs[id], "topic %s references unknown resource %s", topic.ID, id)
		}
		for _, id := range topic.RelatedDatasets {
			assert.True(t, datasetIDs[id], "topic %s references unknown dataset %s", topic.ID, id)
		}
	}
	for _, eq := range catalog.Equipment {
		for _, id := range eq.RelatedTopics {
			assert.True(t, topicIDs[id], "equipment %s references unknown topic %s", eq.ID, id)
		}
	}
}

func TestEmbeddedQuestionnaireScores(t *testing.T) {
	catalog := MustCatalog()
	qc, err := questionnaire.NewCatalog(catalog.Questionnaire.Topics, catalog.Questionnaire.Questions)
	require.NoError(t, err)

	result, err := qc.Score([]domain.UserAnswer{
		{QuestionID: "skills", SelectedOptionID: "programming"},
		{QuestionID: "interests", SelectedOptionID: "data"},
		{QuestionID: "environment", SelectedOptionID: "office"},
		{QuestionID: "career", SelectedOptionID: "tech"},
	})
	require.NoError(t, err)

	// algorithm_implementation: (100+90+100+90)/4 = 95; ai_surveying: (90+100+100+100)/4 = 97.5 -> 98
	assert.Equal(t, 95, result.TopicMatches["algorithm_implementation"])
	assert.Equal(t, 98, result.TopicMatches["ai_surveying"])
	assert.Equal(t, []string{"ai_surveying", "algorithm_implementation", "gis"}, result.RecommendedTopics)
}
