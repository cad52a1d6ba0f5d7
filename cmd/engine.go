package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobfit/internal/ai"
	"github.com/spigell/jobfit/internal/ai/gemini"
	"github.com/spigell/jobfit/internal/gap"
	"github.com/spigell/jobfit/internal/secrets"
	"github.com/spigell/jobfit/internal/utils"
)

// newEngine builds the analysis engine. LLM setup problems never stop the engine:
// it runs deterministically and reports the reason in every response.
func newEngine(ctx context.Context, cfg *AIConfig, logger *zap.Logger) *gap.Engine {
	if cfg == nil || !cfg.Enabled {
		logger.Info("llm augmentation disabled", zap.String("mode", "deterministic"))
		return gap.NewEngine(logger, nil)
	}

	completer, err := newCompleter(ctx, cfg, logger)
	if err != nil {
		logger.Warn("llm augmentation unavailable, falling back to deterministic ranking", zap.Error(err))
		note := fmt.Sprintf("LLM unavailable (%s); deterministic ranking used.", utils.TruncateForLog(err.Error(), 200))
		return gap.NewEngine(logger, nil, note)
	}

	augmenter := gap.NewAugmenter(completer, gap.AugmenterConfig{
		UseRealLLM:     cfg.UseRealLLM,
		Timeout:        cfg.Timeout,
		MaxPromptChars: cfg.MaxPromptChars,
		MaxTokens:      cfg.MaxTokens,
		Temperature:    float32(cfg.Temperature),
	}, logger)

	logger.Info("llm augmentation enabled",
		zap.String("provider", gemini.Provider),
		zap.String("model", completer.Model()),
		zap.Bool("use_real_llm", cfg.UseRealLLM),
	)

	return gap.NewEngine(logger, augmenter)
}

func newCompleter(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Completer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxLogLength, logger)
	if err != nil {
		return nil, fmt.Errorf("building gemini generator: %w", err)
	}

	return generator, nil
}
