package handoff

import (
	"context"
	"fmt"
	"strings"

	"onboarding_bot/src/llm/summary"
	"onboarding_bot/src/model"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// NewChatModel builds the summary model for cfg.Provider. An empty provider returns nil, nil.
func NewChatModel(ctx context.Context, cfg model.SummaryConfig) (einomodel.BaseChatModel, error) {
	switch strings.ToLower(cfg.Provider) {
	case "":
		return nil, nil
	case "openai":
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case "ollama":
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case "deepseek":
		return deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case "ark":
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	default:
		return nil, fmt.Errorf("unknown summary provider %q", cfg.Provider)
	}
}

// NewSummaryGraph compiles transcript -> prompt -> chat model -> summary text
func NewSummaryGraph(ctx context.Context, chatModel einomodel.BaseChatModel) (compose.Runnable[model.Transcript, string], error) {
	graph := compose.NewGraph[model.Transcript, string]()

	variables := compose.InvokableLambda(func(ctx context.Context, t model.Transcript) (map[string]any, error) {
		return map[string]any{
			"name":      t.DisplayName,
			"responses": FormatAnswers(t.Answers),
		}, nil
	})

	template := summary.CreateSummaryTemplate()

	extract := compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (string, error) {
		if msg == nil {
			return "", fmt.Errorf("summary model returned no message")
		}
		return summary.ParseSummary(msg.Content)
	})

	if err := graph.AddLambdaNode("variables", variables); err != nil {
		return nil, fmt.Errorf("failed to add variables node: %w", err)
	}
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("failed to add prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("chat_model", chatModel); err != nil {
		return nil, fmt.Errorf("failed to add chat model node: %w", err)
	}
	if err := graph.AddLambdaNode("extract", extract); err != nil {
		return nil, fmt.Errorf("failed to add extract node: %w", err)
	}

	if err := graph.AddEdge(compose.START, "variables"); err != nil {
		return nil, fmt.Errorf("failed to add start edge: %w", err)
	}
	if err := graph.AddEdge("variables", "prompt"); err != nil {
		return nil, fmt.Errorf("failed to add variables to prompt edge: %w", err)
	}
	if err := graph.AddEdge("prompt", "chat_model"); err != nil {
		return nil, fmt.Errorf("failed to add prompt to chat model edge: %w", err)
	}
	if err := graph.AddEdge("chat_model", "extract"); err != nil {
		return nil, fmt.Errorf("failed to add chat model to extract edge: %w", err)
	}
	if err := graph.AddEdge("extract", compose.END); err != nil {
		return nil, fmt.Errorf("failed to add end edge: %w", err)
	}

	runnable, err := graph.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile summary graph: %w", err)
	}
	return runnable, nil
}
