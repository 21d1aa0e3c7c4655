package agents

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pulsecheck/backend/internal/ai"
	"github.com/pulsecheck/backend/internal/models"
)

const maxActionItems = 5

var validPriorities = map[string]bool{
	"critical": true,
	"high":     true,
	"medium":   true,
	"low":      true,
}

var validCategories = map[string]bool{
	"engagement":   true,
	"support":      true,
	"relationship": true,
	"technical":    true,
	"billing":      true,
}

// ActionItemAgent produces 1-5 ranked remediation actions. On Gateway
// failure the set is derived from score component thresholds instead.
type ActionItemAgent struct {
	gw     *ai.Gateway
	logger zerolog.Logger
}

func NewActionItemAgent(gw *ai.Gateway, logger zerolog.Logger) *ActionItemAgent {
	return &ActionItemAgent{gw: gw, logger: logger}
}

func (a *ActionItemAgent) Generate(ctx context.Context, customer models.CustomerContext, healthScore int, components models.ScoreComponents, recentIssues []string) []models.ActionItem {
	payload, err := a.gw.GenerateActionItems(ctx, customer, healthScore, components, recentIssues)
	if err != nil {
		a.logger.Error().Err(err).Msg("action item generation failed")
		return defaultActions(healthScore, components)
	}

	items := make([]models.ActionItem, 0, len(payload.ActionItems))
	for _, raw := range payload.ActionItems {
		items = append(items, validateActionItem(raw))
	}
	if len(items) == 0 {
		return defaultActions(healthScore, components)
	}
	if len(items) > maxActionItems {
		items = items[:maxActionItems]
	}
	return items
}

// validateActionItem normalizes one raw item: enum fields fall back to
// medium/engagement, scores clamp to [1,10], the title is bounded at 255
// characters. Idempotent.
func validateActionItem(raw ai.RawActionItem) models.ActionItem {
	priority := strings.ToLower(strings.TrimSpace(raw.Priority))
	if !validPriorities[priority] {
		priority = "medium"
	}
	category := strings.ToLower(strings.TrimSpace(raw.Category))
	if !validCategories[category] {
		category = "engagement"
	}

	title := raw.Title
	if title == "" {
		title = "Follow up with customer"
	}
	if r := []rune(title); len(r) > 255 {
		title = string(r[:255])
	}

	return models.ActionItem{
		Title:             title,
		Description:       raw.Description,
		Priority:          priority,
		Category:          category,
		ImpactScore:       clampScore(raw.ImpactScore, 5),
		EffortScore:       clampScore(raw.EffortScore, 5),
		SuggestedTimeline: raw.SuggestedTimeline,
		SuccessMetrics:    orEmpty(raw.SuccessMetrics),
	}
}

// defaultActions is the rule-derived fallback set. Never empty, never more
// than five items.
func defaultActions(healthScore int, components models.ScoreComponents) []models.ActionItem {
	var actions []models.ActionItem

	if healthScore <= 5 {
		priority := "medium"
		if healthScore <= 3 {
			priority = "high"
		}
		actions = append(actions, models.ActionItem{
			Title:             "Schedule customer check-in call",
			Description:       "Reach out to understand current pain points and gather feedback.",
			Priority:          priority,
			Category:          "relationship",
			ImpactScore:       7,
			EffortScore:       3,
			SuggestedTimeline: "Within 1 week",
			SuccessMetrics:    []string{"Call completed", "Feedback gathered"},
		})
	}

	if components.Sentiment < 5 {
		actions = append(actions, models.ActionItem{
			Title:             "Address customer concerns",
			Description:       "Review recent communications and address any unresolved complaints.",
			Priority:          "high",
			Category:          "support",
			ImpactScore:       8,
			EffortScore:       4,
			SuggestedTimeline: "Within 3 days",
			SuccessMetrics:    []string{"Issues identified", "Resolution plan created"},
		})
	}

	if components.Engagement < 5 {
		actions = append(actions, models.ActionItem{
			Title:             "Increase customer engagement",
			Description:       "Share relevant product updates, tips, or success stories.",
			Priority:          "medium",
			Category:          "engagement",
			ImpactScore:       6,
			EffortScore:       2,
			SuggestedTimeline: "Within 2 weeks",
			SuccessMetrics:    []string{"Content shared", "Response received"},
		})
	}

	if components.IssueResolution < 5 {
		actions = append(actions, models.ActionItem{
			Title:             "Review open support tickets",
			Description:       "Audit and prioritize any open support issues for this customer.",
			Priority:          "high",
			Category:          "support",
			ImpactScore:       8,
			EffortScore:       5,
			SuggestedTimeline: "Within 1 week",
			SuccessMetrics:    []string{"Tickets reviewed", "Issues resolved"},
		})
	}

	if len(actions) == 0 {
		actions = append(actions, models.ActionItem{
			Title:             "Monitor customer health",
			Description:       "Continue monitoring and maintain regular communication.",
			Priority:          "low",
			Category:          "relationship",
			ImpactScore:       4,
			EffortScore:       1,
			SuggestedTimeline: "Ongoing",
			SuccessMetrics:    []string{"Regular check-ins maintained"},
		})
	}

	if len(actions) > maxActionItems {
		actions = actions[:maxActionItems]
	}
	return actions
}
