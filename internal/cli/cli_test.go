package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"geoportal-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreCommandPrintsResult(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"score", "--answer", "skills=gis", "--answer", "career=government"})
	require.NoError(t, cmd.Execute())

	var result domain.QuestionnaireResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 2, result.Answered)
	assert.Len(t, result.RecommendedTopics, 3)
	assert.Empty(t, result.Anomalies)
}

func TestScoreCommandStrictRejectsUnknownOption(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"score", "--strict", "--answer", "skills=juggling"})
	assert.ErrorIs(t, cmd.Execute(), domain.ErrUnresolvedAnswers)
}

func TestParseAnswersRejectsMalformedInput(t *testing.T) {
	_, err := parseAnswers([]string{"skills"})
	assert.Error(t, err)

	got, err := parseAnswers([]string{"skills=gis", "career="})
	require.NoError(t, err)
	assert.Equal(t, []domain.UserAnswer{
		{QuestionID: "skills", SelectedOptionID: "gis"},
		{QuestionID: "career", SelectedOptionID: ""},
	}, got)
}
