// Package analysis answers a fixed catalog of strategic questions about a
// brand. Each answer is persisted per (job, question type), so a rerun
// reuses stored answers instead of paying for generation twice.
package analysis

import (
	"fmt"

	"github.com/brandscout/brandscout/internal/core/domain"
)

// Question types. The catalog is closed; storage keys answers by these.
const (
	QuestionValueProposition = "value_proposition"
	QuestionTargetAudience   = "target_audience"
	QuestionContentPillars   = "content_pillars"
	QuestionGrowthStrategy   = "growth_strategy"
	QuestionDifferentiation  = "differentiation"
	QuestionPricingSignals   = "pricing_signals"
	QuestionBrandVoice       = "brand_voice"
	QuestionPainPoints       = "audience_pain_points"
	QuestionContentFormats   = "content_formats"
	QuestionEngagement       = "engagement_tactics"
	QuestionPartnerships     = "partnership_opportunities"
	QuestionRiskFactors      = "risk_factors"
)

// Question is one catalog entry. Focus is the question-specific system
// instruction appended to the shared analyst prompt.
type Question struct {
	Type   string
	Prompt string
	Focus  string
}

// Catalog returns the fixed question list in ask order.
func Catalog() []Question {
	return []Question{
		{QuestionValueProposition, "What is the brand's core value proposition? What promise does it make to its audience?",
			"Focus on the promise made to the audience, not on product features."},
		{QuestionTargetAudience, "Who is the target audience? Describe demographics, interests and the problems they bring to this brand.",
			"Describe the audience as segments with demographics and motivations."},
		{QuestionContentPillars, "What are the brand's main content pillars or recurring themes?",
			"Name at most five pillars and back each with evidence."},
		{QuestionGrowthStrategy, "What growth strategy does the brand appear to follow across its channels?",
			"Distinguish organic tactics from paid or partnership-driven growth."},
		{QuestionDifferentiation, "How does the brand differentiate itself from others in the same niche?",
			"Compare against the niche baseline, not against unrelated brands."},
		{QuestionPricingSignals, "What pricing or monetization signals are visible? Products, tiers, sponsorships, affiliate activity.",
			"Report only monetization signals actually present in the evidence."},
		{QuestionBrandVoice, "Characterize the brand voice and tone. How does it speak to its audience?",
			"Describe tone with concrete adjectives and quote short examples."},
		{QuestionPainPoints, "What audience pain points does the brand address, explicitly or implicitly?",
			"Separate explicitly addressed pain points from implied ones."},
		{QuestionContentFormats, "Which content formats does the brand rely on, and which perform best?",
			"List formats by apparent frequency before judging performance."},
		{QuestionEngagement, "What engagement tactics does the brand use to build community and retain followers?",
			"Focus on repeatable tactics, not one-off campaigns."},
		{QuestionPartnerships, "What partnership or collaboration opportunities fit this brand?",
			"Suggest partner categories grounded in the brand's niche and voice."},
		{QuestionRiskFactors, "What risk factors or weaknesses could threaten this brand's position?",
			"Rank risks by likely impact and note any mitigation already visible."},
	}
}

const systemPromptPrefix = `You are a brand strategy analyst. Answer strictly from the evidence
provided. When the evidence does not support a claim, say so rather than
inventing one. Be specific and concise.`

// systemPrompt combines the shared analyst instructions with the
// question-specific focus.
func systemPrompt(q Question) string {
	if q.Focus == "" {
		return systemPromptPrefix
	}

	return systemPromptPrefix + "\n\n" + q.Focus
}

// buildUserPrompt assembles the evidence block and the question.
func buildUserPrompt(q Question, rctx domain.ResearchContext) string {
	prompt := fmt.Sprintf("Brand: %s (@%s)\nNiche: %s\nBio: %s\n", rctx.BrandName, rctx.Handle, rctx.Niche, rctx.Bio)

	if rctx.Website != "" {
		prompt += fmt.Sprintf("Website: %s\n", rctx.Website)
	}

	if rctx.WebSummary != "" {
		prompt += fmt.Sprintf("\nWeb research excerpts:\n%s\n", rctx.WebSummary)
	}

	prompt += fmt.Sprintf("\nQuestion: %s", q.Prompt)

	return prompt
}
