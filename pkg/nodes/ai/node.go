// Package ai implements AI call nodes backed by the AI-provider
// collaborator.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/flowgrid/flowgrid/pkg/models"
	aiprovider "github.com/flowgrid/flowgrid/pkg/providers/ai"
	"github.com/flowgrid/flowgrid/pkg/resolver"
)

const (
	OperationGenerate  = "text_generation"
	OperationSentiment = "sentiment_analysis"
	OperationSummarize = "summarization"
	OperationClassify  = "classification"
	OperationExtract   = "data_extraction"

	// callTimeout bounds each provider call; a timeout is a fatal result
	// for the node, not a run-level crash.
	callTimeout = 30 * time.Second
)

// Config is the ai node's typed configuration.
type Config struct {
	Operation   string   `json:"operation"`
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model,omitempty"`
	MaxTokens   int      `json:"maxTokens,omitempty"`
	Temperature float32  `json:"temperature,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	Fields      []string `json:"fields,omitempty"`
}

type Runner struct {
	provider aiprovider.Provider
}

func NewRunner(provider aiprovider.Provider) *Runner {
	return &Runner{provider: provider}
}

func (r *Runner) Kind() models.NodeKind {
	return models.NodeKindAI
}

func (r *Runner) Execute(ctx context.Context, wf *models.Workflow, node *models.WorkflowNode, ec *models.ExecutionContext) models.NodeExecutionResult {
	if r.provider == nil {
		ec.Log(node.ID, models.LogLevelError, "no ai provider configured", nil)

		return models.Fatal("ai node requires a configured provider")
	}

	var config Config
	if err := models.DecodeConfig(node.Config, &config); err != nil {
		ec.Log(node.ID, models.LogLevelError, "invalid ai config", err.Error())

		return models.Fatal(fmt.Sprintf("invalid ai config: %v", err))
	}

	prompt := resolver.ResolveString(config.Prompt, ec)

	system, userPrompt := buildPrompt(config, prompt)

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	text, usage, err := r.provider.Generate(callCtx, aiprovider.Request{
		Model:        config.Model,
		SystemPrompt: system,
		Prompt:       userPrompt,
		MaxTokens:    config.MaxTokens,
		Temperature:  config.Temperature,
	})
	if err != nil {
		ec.Log(node.ID, models.LogLevelError, "ai provider call failed", err.Error())

		return models.Fatal(fmt.Sprintf("ai provider call failed: %v", err))
	}

	output := map[string]any{
		"operation": config.Operation,
		"model":     config.Model,
		"usage": map[string]any{
			"prompt_tokens":     usage.PromptTokens,
			"completion_tokens": usage.CompletionTokens,
			"total_tokens":      usage.TotalTokens,
		},
	}

	switch config.Operation {
	case OperationSentiment:
		output["sentiment"] = strings.ToLower(strings.TrimSpace(text))
	case OperationClassify:
		output["category"] = strings.TrimSpace(text)
		output["categories"] = config.Categories
	case OperationExtract:
		// The model is asked for JSON; when it returns anything else, keep
		// the raw text instead of failing the step.
		var extracted map[string]any
		if jsonErr := json.Unmarshal([]byte(strings.TrimSpace(text)), &extracted); jsonErr != nil {
			extracted = map[string]any{"raw": text}
		}

		output["extracted"] = extracted
	default:
		output["text"] = text
	}

	return models.Continue(output)
}

// buildPrompt shapes the system/user prompts per operation.
func buildPrompt(config Config, prompt string) (string, string) {
	switch config.Operation {
	case OperationSentiment:
		return "You are a sentiment classifier. Respond with exactly one word: positive, negative, or neutral.",
			prompt
	case OperationSummarize:
		return "You are a summarizer. Produce a concise summary of the provided text.",
			prompt
	case OperationClassify:
		return fmt.Sprintf(
			"You are a classifier. Respond with exactly one of the following categories: %s.",
			strings.Join(config.Categories, ", "),
		), prompt
	case OperationExtract:
		fields := "all relevant fields"
		if len(config.Fields) > 0 {
			fields = strings.Join(config.Fields, ", ")
		}

		return fmt.Sprintf(
			"Extract structured data from the provided text. Respond with a JSON object containing: %s. Respond with JSON only.",
			fields,
		), prompt
	}

	return "", prompt
}
