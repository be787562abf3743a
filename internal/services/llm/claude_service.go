package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"golang.org/x/time/rate"
)

// ClaudeService implements the LLMService interface using the Anthropic
// Claude API. It offers free-text generation and tool-constrained
// structured generation; retry with exponential backoff and request
// pacing live here so callers never loop on provider errors themselves.
type ClaudeService struct {
	config  *common.ClaudeConfig
	logger  arbor.ILogger
	client  anthropic.Client
	limiter *rate.Limiter
	retry   *RetryConfig
	timeout time.Duration

	inputTokens  atomic.Int64
	outputTokens atomic.Int64
}

// NewClaudeService creates a new Claude LLM service instance.
func NewClaudeService(claudeConfig *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeService, error) {
	if claudeConfig.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY, RESPONDEO_CLAUDE_API_KEY, or claude.api_key in config)")
	}

	if claudeConfig.Model == "" {
		claudeConfig.Model = "claude-sonnet-4-20250514"
	}

	timeout, err := time.ParseDuration(claudeConfig.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", claudeConfig.Timeout, err)
	}

	limit := rate.Limit(claudeConfig.RateLimit)
	if claudeConfig.RateLimit <= 0 {
		limit = rate.Inf
	}

	service := &ClaudeService{
		config:  claudeConfig,
		logger:  logger,
		client:  anthropic.NewClient(option.WithAPIKey(claudeConfig.APIKey)),
		limiter: rate.NewLimiter(limit, 1),
		retry:   NewDefaultRetryConfig(),
		timeout: timeout,
	}

	logger.Debug().
		Str("model", claudeConfig.Model).
		Dur("timeout", timeout).
		Float64("temperature", claudeConfig.Temperature).
		Int("max_tokens", claudeConfig.MaxTokens).
		Msg("Claude LLM service initialized successfully")

	return service, nil
}

// Generate produces a free-text completion for a system+user prompt pair.
func (s *ClaudeService) Generate(ctx context.Context, req interfaces.TextRequest) (string, interfaces.TokenUsage, error) {
	if strings.TrimSpace(req.User) == "" {
		return "", interfaces.TokenUsage{}, fmt.Errorf("user prompt cannot be empty")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()

	params := s.baseParams(req.System, req.User, req.MaxTokens)
	temperature := req.Temperature
	if temperature == 0 {
		temperature = s.config.Temperature
	}
	if temperature > 0 {
		params.Temperature = anthropic.Float(temperature)
	}

	var resp *anthropic.Message
	err := WithRetry(timeoutCtx, s.retry, func() error {
		if err := s.limiter.Wait(timeoutCtx); err != nil {
			return err
		}
		var callErr error
		resp, callErr = s.client.Messages.New(timeoutCtx, params)
		return callErr
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Claude text generation failed")
		return "", interfaces.TokenUsage{}, classifyProviderError(err)
	}

	usage := s.recordUsage(resp)

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", usage, fmt.Errorf("no response generated from Claude API")
	}

	s.logger.Debug().
		Int("response_length", text.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Claude text generation completed")

	return text.String(), usage, nil
}

// GenerateStructured calls the model in tool-use mode with the tool call
// forced, and returns the first tool-use payload. The tool schema is the
// output contract; free text in the reply is discarded.
func (s *ClaudeService) GenerateStructured(ctx context.Context, req interfaces.ToolRequest) (json.RawMessage, interfaces.TokenUsage, error) {
	if req.Tool.Name == "" {
		return nil, interfaces.TokenUsage{}, fmt.Errorf("tool definition is required for structured generation")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()

	params := s.baseParams(req.System, req.User, req.MaxTokens)

	properties, _ := req.Tool.InputSchema["properties"].(map[string]any)
	var required []string
	if raw, ok := req.Tool.InputSchema["required"].([]string); ok {
		required = raw
	}

	params.Tools = []anthropic.ToolUnionParam{{
		OfTool: &anthropic.ToolParam{
			Name:        req.Tool.Name,
			Description: anthropic.String(req.Tool.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: properties,
				Required:   required,
			},
		},
	}}
	params.ToolChoice = anthropic.ToolChoiceUnionParam{
		OfTool: &anthropic.ToolChoiceToolParam{Name: req.Tool.Name},
	}

	var resp *anthropic.Message
	err := WithRetry(timeoutCtx, s.retry, func() error {
		if err := s.limiter.Wait(timeoutCtx); err != nil {
			return err
		}
		var callErr error
		resp, callErr = s.client.Messages.New(timeoutCtx, params)
		return callErr
	})
	if err != nil {
		s.logger.Error().Err(err).Str("tool", req.Tool.Name).Msg("Claude structured generation failed")
		return nil, interfaces.TokenUsage{}, classifyProviderError(err)
	}

	usage := s.recordUsage(resp)

	for _, block := range resp.Content {
		if block.Type == "tool_use" && block.Name == req.Tool.Name {
			s.logger.Debug().
				Str("tool", req.Tool.Name).
				Dur("duration", time.Since(startTime)).
				Msg("Claude structured generation completed")
			return json.RawMessage(block.Input), usage, nil
		}
	}

	return nil, usage, fmt.Errorf("model did not call tool %s", req.Tool.Name)
}

// TotalUsage returns the token counts aggregated across all calls.
func (s *ClaudeService) TotalUsage() interfaces.TokenUsage {
	return interfaces.TokenUsage{
		InputTokens:  s.inputTokens.Load(),
		OutputTokens: s.outputTokens.Load(),
	}
}

// Close releases resources and performs cleanup operations.
func (s *ClaudeService) Close() error {
	s.logger.Debug().Msg("Closing Claude LLM service")
	// Claude client doesn't require explicit cleanup
	return nil
}

func (s *ClaudeService) baseParams(system, user string, maxTokens int) anthropic.MessageNewParams {
	if maxTokens <= 0 {
		maxTokens = s.config.MaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

func (s *ClaudeService) recordUsage(resp *anthropic.Message) interfaces.TokenUsage {
	usage := interfaces.TokenUsage{
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}
	s.inputTokens.Add(usage.InputTokens)
	s.outputTokens.Add(usage.OutputTokens)
	return usage
}

// classifyProviderError tags rate-limit and connection failures as
// transient so the pipeline's error taxonomy can branch on kind.
func classifyProviderError(err error) error {
	if IsRetryable(err) {
		return common.NewError(common.KindTransient, err)
	}
	return err
}

var _ interfaces.LLMService = (*ClaudeService)(nil)
