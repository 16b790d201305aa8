// Package llm adds optional model-generated commentary to finished
// reports. Enhancement runs after scoring and never feeds back into
// it; any failure downgrades to a report warning.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/moltpulse/moltpulse/internal/delivery"
	"github.com/moltpulse/moltpulse/internal/model"
)

// Enhancer generates executive summaries, section insights, and
// recommendations through an OpenAI-compatible endpoint.
type Enhancer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewEnhancer builds an enhancer from configuration. A missing API key
// is an error: callers should check availability before constructing.
func NewEnhancer(cfg model.LLMConfig) (*Enhancer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	mdl := cfg.Model
	if mdl == "" {
		mdl = openai.GPT4oMini
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Enhancer{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   mdl,
		timeout: timeout,
	}, nil
}

const systemContext = "You are an intelligence analyst writing for senior executives. " +
	"Use only the data provided. Focus on actionable insights. Be concise."

// Enhance mutates the report in place: executive summary, per-section
// insights, and strategic recommendations. Each piece fails
// independently; failures land in the report's warnings.
func (e *Enhancer) Enhance(ctx context.Context, rep *model.Report) {
	digest := delivery.RenderMarkdown(rep)

	summary, err := e.complete(ctx, fmt.Sprintf(
		"Provide a 2-3 sentence executive summary highlighting the single most important development in this report.\n\n%s",
		digest))
	if err != nil {
		rep.Errors = append(rep.Errors, fmt.Sprintf("executive summary generation failed: %v", err))
	} else {
		rep.ExecutiveSummary = summary
		rep.LLMEnhanced = true
		rep.LLMProvider = "openai"
	}

	for i := range rep.Sections {
		section := &rep.Sections[i]
		if len(section.Items) == 0 || section.Insight != "" {
			continue
		}

		insight, err := e.complete(ctx, sectionPrompt(section))
		if err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s insight generation failed: %v", section.Title, err))
			continue
		}
		section.Insight = insight
		rep.LLMEnhanced = true
	}

	recs, err := e.complete(ctx, fmt.Sprintf(
		"Provide 3-5 specific, actionable recommendations based on this intelligence. One per line, no numbering.\n\n%s",
		digest))
	if err != nil {
		rep.Errors = append(rep.Errors, fmt.Sprintf("recommendations generation failed: %v", err))
		return
	}
	for _, line := range strings.Split(recs, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. "))
		if line != "" {
			rep.StrategicRecommendations = append(rep.StrategicRecommendations, line)
		}
	}
	if len(rep.StrategicRecommendations) > 0 {
		rep.LLMEnhanced = true
	}
}

func sectionPrompt(section *model.ReportSection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Provide a 1-2 sentence insight about this %s data. What is the key takeaway?\n\n", section.Title)
	for _, item := range section.Items {
		fmt.Fprintf(&b, "- %s\n", item.DisplayText())
	}
	return b.String()
}

func (e *Enhancer) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemContext},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   500,
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
