package critic

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neon-guide/guide-cli/pkg/anthropic"
)

// fakeLLM returns canned responses in order.
type fakeLLM struct {
	responses []string
	requests  []anthropic.MessageRequest
}

func (f *fakeLLM) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		return &anthropic.MessageResponse{}, nil
	}
	text := f.responses[0]
	f.responses = f.responses[1:]
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}, nil
}

func TestEvaluate_FullPipeline(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`{"serves_target_food": true, "extracted_facts_ko": "튀김옷이 끝까지 바삭하다. 현지인 단골 위주."}`,
		`{"score": 91, "award_level": "2 Neon Hearts", "description_en": "Crispy perfection.", "description_ko": "바삭함의 정석.", "justification": "Superior technique, but no one travels across town for it."}`,
	}}
	c := New(llm)

	eval, err := c.Evaluate(context.Background(), "교촌치킨 홍대점", "치킨", []string{"리뷰 1", "리뷰 2"})
	require.NoError(t, err)
	assert.Equal(t, 91, eval.Score)
	assert.Equal(t, "2 Neon Hearts", eval.AwardLevel)
	assert.Equal(t, "Crispy perfection.", eval.DescriptionEN)

	require.Len(t, llm.requests, 2)
	analyst, head := llm.requests[0], llm.requests[1]
	assert.Contains(t, analyst.System[0].Text, "치킨")
	assert.Contains(t, analyst.Messages[0].Content, "--- NEXT REVIEW ---")
	assert.InDelta(t, 0.2, *analyst.Temperature, 1e-9)
	assert.Contains(t, head.System[0].Text, "Neon Hearts")
	assert.Contains(t, head.Messages[0].Content, "튀김옷이 끝까지 바삭하다", "critic sees the analyst's facts, not raw blogs")
	assert.InDelta(t, 0.4, *head.Temperature, 1e-9)
}

func TestEvaluate_GatekeeperRejects(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`{"serves_target_food": false, "extracted_facts_ko": ""}`,
	}}
	c := New(llm)

	eval, err := c.Evaluate(context.Background(), "카페", "치킨", []string{"커피 후기"})
	require.NoError(t, err)
	assert.Zero(t, eval.Score)
	assert.Equal(t, "None", eval.AwardLevel)
	assert.Contains(t, eval.Justification, "치킨")
	assert.Len(t, llm.requests, 1, "head critic never consulted")
}

func TestEvaluate_MalformedJSONRetried(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`I think this place is great!`, // not JSON, costs one attempt
		`{"serves_target_food": true, "extracted_facts_ko": "facts"}`,
		"```json\n{\"score\": 82, \"award_level\": \"1 Neon Heart\", \"description_en\": \"Fine.\", \"description_ko\": \"무난.\", \"justification\": \"Solid but local.\"}\n```",
	}}
	c := New(llm, WithMaxAttempts(2))

	eval, err := c.Evaluate(context.Background(), "집", "치킨", []string{"리뷰"})
	require.NoError(t, err)
	assert.Equal(t, 82, eval.Score)
	assert.Len(t, llm.requests, 3)
}

func TestEvaluate_ExhaustedAttemptsFail(t *testing.T) {
	llm := &fakeLLM{responses: []string{"garbage", "garbage"}}
	c := New(llm, WithMaxAttempts(2))

	_, err := c.Evaluate(context.Background(), "집", "치킨", []string{"리뷰"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "analyst phase"))
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON(`Here you go: {"a":1} hope that helps`))
	assert.Equal(t, `{"a":1}`, cleanJSON(`{"a":1}`))
}
