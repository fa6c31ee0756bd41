// Package critic scores discovered restaurants with a two-phase LLM
// pipeline: a low-temperature analyst verifies the menu and extracts
// facts, then a head critic scores them against the Neon Hearts rubric.
package critic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/neon-guide/guide-cli/internal/resilience"
	"github.com/neon-guide/guide-cli/pkg/anthropic"
)

// Evaluation is the head critic's verdict for one restaurant.
type Evaluation struct {
	Score         int    `json:"score"`
	AwardLevel    string `json:"award_level"`
	DescriptionEN string `json:"description_en"`
	DescriptionKO string `json:"description_ko"`
	Justification string `json:"justification"`
}

// analystVerdict is the gatekeeper's output.
type analystVerdict struct {
	ServesTargetFood bool   `json:"serves_target_food"`
	ExtractedFactsKO string `json:"extracted_facts_ko"`
}

const (
	defaultAnalystModel = "claude-haiku-4-5-20251001"
	defaultCriticModel  = "claude-sonnet-4-5-20250929"
)

// Critic runs the evaluation pipeline.
type Critic struct {
	llm          anthropic.Client
	analystModel string
	criticModel  string
	retry        resilience.RetryConfig
}

// Option configures the Critic.
type Option func(*Critic)

// WithModels overrides the analyst and critic models.
func WithModels(analyst, critic string) Option {
	return func(c *Critic) {
		c.analystModel = analyst
		c.criticModel = critic
	}
}

// WithMaxAttempts caps attempts per LLM call; malformed JSON counts as
// a failed attempt.
func WithMaxAttempts(n int) Option {
	return func(c *Critic) { c.retry.MaxAttempts = n }
}

// New creates a Critic.
func New(llm anthropic.Client, opts ...Option) *Critic {
	c := &Critic{
		llm:          llm,
		analystModel: defaultAnalystModel,
		criticModel:  defaultCriticModel,
		retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Second,
			MaxBackoff:     15 * time.Second,
			Multiplier:     2.0,
			JitterFraction: 0.25,
			// A parse failure is as retryable as a network failure here.
			ShouldRetry: func(error) bool { return true },
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

const analystInstructionFmt = `You are a meticulous data analyst reviewing Korean blog posts for a restaurant.
The user is specifically looking for excellent: %s.

TASK 1: Verify if the restaurant actually specializes in or famously serves %s.
If they just happen to have it on a massive menu, or don't serve it at all, flag 'serves_target_food' as false.

TASK 2: If true, extract objective facts regarding:
- Textural integrity (e.g., does the batter stay crispy, is the meat dry?)
- Vibe and demographic (Is it packed with locals, tourists, or empty?)
- 안주 (Anju) synergy with alcohol.

Output strictly in JSON format matching this structure:
{
    "serves_target_food": (boolean),
    "extracted_facts_ko": (A detailed summary of the facts in Korean)
}`

const criticInstructionFmt = `You are the Head Critic for the 'Neon Guide', an elite guide evaluating Korean comfort food and 안주.
You are notoriously strict. You are evaluating this restaurant for its quality regarding: %s.

Score the restaurant out of 100 using this severe rubric:
- 95-100: Legendary. Reviewers mention traveling specifically for this. Flawless execution.
- 88-94: Exceptional. A neighborhood staple with undeniably superior technique.
- 80-87: Great. Solid choice if you are in the area, but not worth a cross-town trip.
- Under 80: Average or tourist trap. Do not award any hearts.

Award Levels:
- 95+: "3 Neon Hearts"
- 88-94: "2 Neon Hearts"
- 80-87: "1 Neon Heart"
- <80: "None"

Return ONLY a valid JSON object.
Structure:
{
    "score": (integer 0-100),
    "award_level": (string),
    "description_en": (A punchy, honest 2-sentence English description. Be critical if needed.),
    "description_ko": (A natural, 2-sentence Korean description),
    "justification": (1 sentence explaining EXACTLY why it earned this specific score and why it lost points.)
}`

// Evaluate scores one restaurant from its blog review texts. A place
// that fails the menu gatekeeper gets a zero score, not an error.
func (c *Critic) Evaluate(ctx context.Context, name, keyword string, blogTexts []string) (*Evaluation, error) {
	combined := strings.Join(blogTexts, "\n\n--- NEXT REVIEW ---\n\n")

	verdict, usage, err := callJSON[analystVerdict](ctx, c, anthropic.MessageRequest{
		Model:       c.analystModel,
		MaxTokens:   2048,
		Temperature: temp(0.2),
		System:      anthropic.BuildCachedSystemBlocks(fmt.Sprintf(analystInstructionFmt, keyword, keyword)),
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: fmt.Sprintf("Analyze these reviews for %s:\n\n%s", name, combined),
		}},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "critic: analyst phase for %q", name)
	}
	usage.LogCost(c.analystModel, "analyst")

	if !verdict.ServesTargetFood {
		zap.L().Info("analyst rejected place",
			zap.String("name", name), zap.String("keyword", keyword))
		return &Evaluation{
			Score:         0,
			AwardLevel:    "None",
			Justification: fmt.Sprintf("Does not specialize in %s.", keyword),
		}, nil
	}

	eval, usage, err := callJSON[Evaluation](ctx, c, anthropic.MessageRequest{
		Model:       c.criticModel,
		MaxTokens:   2048,
		Temperature: temp(0.4),
		System:      anthropic.BuildCachedSystemBlocks(fmt.Sprintf(criticInstructionFmt, keyword)),
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: fmt.Sprintf("Critique this factual summary for %s:\n\n%s", name, verdict.ExtractedFactsKO),
		}},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "critic: scoring phase for %q", name)
	}
	usage.LogCost(c.criticModel, "critic")
	return &eval, nil
}

// callJSON sends a message and decodes the JSON body of the reply,
// retrying transport errors and malformed output alike.
func callJSON[T any](ctx context.Context, c *Critic, req anthropic.MessageRequest) (T, anthropic.TokenUsage, error) {
	var usage anthropic.TokenUsage
	out, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (T, error) {
		var v T
		resp, err := c.llm.CreateMessage(ctx, req)
		if err != nil {
			return v, err
		}
		usage = resp.Usage
		if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &v); err != nil {
			return v, eris.Wrap(err, "critic: parse model output")
		}
		return v, nil
	})
	return out, usage, err
}

func temp(v float64) *float64 { return &v }

// cleanJSON strips markdown fences and any prose around the outermost
// JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
