package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/rishi-ai/orchestrator/internal/story/model"
	logx "github.com/rishi-ai/orchestrator/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey       string
	BaseURL      string
	GeneratorCfg *model.GeneratorModelConfig
	InsightCfg   *model.InsightModelConfig
}

// ChatModels holds the narration and insight chat models plus the shared
// genai client, which the embedder reuses.
type ChatModels struct {
	Generator *gemini.ChatModel
	Insight   *gemini.ChatModel
	Client    *genai.Client
}

// NewChatModels creates the narration and insight chat models on one client
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	generator, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.GeneratorCfg.Model,
		Temperature: &config.GeneratorCfg.Temperature,
		MaxTokens:   &config.GeneratorCfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating generator model")
		return nil, fmt.Errorf("error creating generator model: %w", err)
	}

	insight, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.InsightCfg.Model,
		Temperature: &config.InsightCfg.Temperature,
		MaxTokens:   &config.InsightCfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating insight model")
		return nil, fmt.Errorf("error creating insight model: %w", err)
	}

	return &ChatModels{
		Generator: generator,
		Insight:   insight,
		Client:    client,
	}, nil
}
