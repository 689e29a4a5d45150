package insight

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/habitup/habitup-engine/internal/core/domain"
)

const defaultModel = "gemini-3-flash-preview"

var _ domain.InsightGenerator = (*GeminiGenerator)(nil)

// GeminiGenerator implements the insight collaborator against the Gemini
// API. Every call declares a JSON response schema; whatever comes back is
// still parsed defensively, with repair and hardcoded fallbacks, because the
// model is not trusted to honor the schema.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		model:  model,
	}, nil
}

func diagnosisPrompt(a domain.OnboardingAnswers) string {
	return fmt.Sprintf(`You are a helpful life coach for someone who wants better habits.

USER CONTEXT:
- Feeling: %s
- Struggle: %s
- Priorities: %s
- Level: %s
- Daily Reality: %s
- Focus Breakers: %s
- Stress Response: %s
- Previous history: %s

ENVIRONMENTAL CONSTRAINTS:
- Places: %s
- Times: %s

STRICT RULES:
1. Define a "Future Identity" using SIMPLE, inspiring words (e.g., "The Daily Dreamer" or "The Learning Pro").
2. Use very simple, clear language. No jargon. No "executive" or "cognitive" talk.
3. Create 3 suggested habits following the formula: "When I am at [PLACE] at [TIME], I will [VERY SMALL ACTION]."
4. Since the user might be a student or younger, make the habits fun and very easy.
5. Generate 2 additional high-impact goals based on their struggle: "%s".
6. Ensure the habits specifically help counter their Focus Breakers (%s).

Return as JSON.`,
		orDefault(a.LifeFeeling, "Not specified"),
		orDefault(a.Frustration, "Not specified"),
		strings.Join(a.AreasOfFocus, ", "),
		orDefault(string(a.RoutineLevel), "BEGINNER"),
		orDefault(a.WeekdayReality, "Typical day"),
		strings.Join(a.FocusBreakers, ", "),
		orDefault(a.OverwhelmedBehavior, "Not specified"),
		strings.Join(a.PreviousTools, ", "),
		strings.Join(a.CommonPlaces, ", "),
		strings.Join(a.FreeTimeSlots, ", "),
		orDefault(a.Frustration, "productivity"),
		strings.Join(a.FocusBreakers, ", "),
	)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

var diagnosisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"reflection":   {Type: genai.TypeString},
		"identityName": {Type: genai.TypeString},
		"insights":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"suggestedHabits": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":        {Type: genai.TypeString},
					"habitFormula": {Type: genai.TypeString},
					"reason":       {Type: genai.TypeString},
					"importance":   {Type: genai.TypeNumber},
				},
				Required: []string{"title", "habitFormula", "reason", "importance"},
			},
		},
		"patterns": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"behavioral": {Type: genai.TypeString},
				"emotional":  {Type: genai.TypeString},
				"blocker":    {Type: genai.TypeString},
				"strength":   {Type: genai.TypeString},
			},
		},
	},
}

var brainDumpSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"tasks": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":      {Type: genai.TypeString},
					"reason":     {Type: genai.TypeString},
					"importance": {Type: genai.TypeNumber},
				},
				Required: []string{"title", "reason", "importance"},
			},
		},
		"detectedEmotions": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
}

// Diagnose asks the model for the productivity archetype. Transport errors
// propagate; parse failures never do, the fallback diagnosis stands in.
func (g *GeminiGenerator) Diagnose(ctx context.Context, answers domain.OnboardingAnswers) (*domain.Diagnosis, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(diagnosisPrompt(answers)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   diagnosisSchema,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini diagnose failed: %w", err)
	}

	return decodeDiagnosis(resp.Text(), answers), nil
}

// ExtractTasks pulls 3-5 simple task drafts out of free text. Both transport
// and parse failures yield an empty list; "no tasks extracted" is a valid,
// non-exceptional outcome for the caller.
func (g *GeminiGenerator) ExtractTasks(ctx context.Context, text string) ([]domain.TaskDraft, error) {
	prompt := fmt.Sprintf(`Extract 3-5 simple tasks from this text: %q.
Explain why each task is good in very simple words (max 8 words).`, text)

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   brainDumpSchema,
		},
	)
	if err != nil {
		return []domain.TaskDraft{}, nil
	}

	return decodeDrafts(resp.Text()), nil
}

// Summarize produces a short encouragement line. The remote call is skipped
// entirely when there is no history to look at.
func (g *GeminiGenerator) Summarize(ctx context.Context, tasks []domain.Task) (string, error) {
	if len(tasks) == 0 {
		return domain.NoHistoryMessage, nil
	}

	titles := make([]string, 0, len(tasks))
	for _, t := range tasks {
		titles = append(titles, t.Title)
	}

	prompt := fmt.Sprintf(
		"Look at these tasks: %s. Give a short, helpful tip in simple words about how to keep going.",
		strings.Join(titles, ", "),
	)

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(
				"Be friendly, simple, and encouraging. No big words. Max 20 words.",
				genai.RoleUser,
			),
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini summarize failed: %w", err)
	}

	summary := strings.TrimSpace(resp.Text())
	if summary == "" {
		return domain.EncouragementFallback, nil
	}
	return summary, nil
}
