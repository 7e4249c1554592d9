package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/z-council/backend/internal/provider"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Council CouncilConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	council, err := loadCouncilConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Council: council}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

const (
	ProviderAnthropic = "anthropic"
	ProviderArk       = "ark"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider string

	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string

	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string

	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool
}

// Enabled 表示是否提供了所选 provider 必需的密钥。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderAnthropic:
		return c.AnthropicAPIKey != ""
	case ProviderArk:
		return c.ArkModel != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
	default:
		return false
	}
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%s 凭证或模型配置缺失", c.Provider)
	}

	temperature := toFloat32(c.Temperature)
	topP := toFloat32(c.TopP)

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	switch c.Provider {
	case ProviderAnthropic:
		return provider.NewAnthropicChatModel(ctx, provider.AnthropicConfig{
			APIKey:      c.AnthropicAPIKey,
			BaseURL:     c.AnthropicBaseURL,
			Model:       c.AnthropicModel,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
	case ProviderArk:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.ArkBaseURL,
			Region:      c.ArkRegion,
			APIKey:      c.ArkAPIKey,
			AccessKey:   c.ArkAccessKey,
			SecretKey:   c.ArkSecretKey,
			Model:       c.ArkModel,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", c.Provider)
	}
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("LLM_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("LLM_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("LLM_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("LLM_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	providerName := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderAnthropic))
	if providerName != ProviderAnthropic && providerName != ProviderArk {
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q", providerName)
	}

	return AIConfig{
		Provider:         providerName,
		AnthropicAPIKey:  strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		AnthropicModel:   getEnvOrDefault("ANTHROPIC_MODEL", string(provider.DefaultModel)),
		AnthropicBaseURL: strings.TrimSpace(os.Getenv("ANTHROPIC_BASE_URL")),
		ArkAPIKey:        strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:     strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:     strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:         strings.TrimSpace(os.Getenv("Model")),
		ArkBaseURL:       getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:        getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:      temperature,
		TopP:             topP,
		MaxTokens:        maxTokens,
		StreamResponse:   stream,
	}, nil
}

// CouncilConfig 描述 persona 定义、记忆与协调运行时的配置。
type CouncilConfig struct {
	DefinitionsPath    string
	DefaultCoordinator string
	MemoryDir          string
	HistoryLimit       int
	Timeout            time.Duration
}

func loadCouncilConfig() (CouncilConfig, error) {
	historyLimit := 10
	if override, err := parseOptionalIntEnv("COUNCIL_HISTORY_LIMIT"); err != nil {
		return CouncilConfig{}, err
	} else if override != nil {
		if *override < 0 {
			historyLimit = 0
		} else {
			historyLimit = *override
		}
	}

	timeout := 3 * time.Minute
	if raw := strings.TrimSpace(os.Getenv("COUNCIL_TIMEOUT")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return CouncilConfig{}, fmt.Errorf("invalid COUNCIL_TIMEOUT value %q: %w", raw, err)
		}
		if parsed <= 0 {
			return CouncilConfig{}, fmt.Errorf("invalid COUNCIL_TIMEOUT value %q: must be positive", raw)
		}
		timeout = parsed
	}

	return CouncilConfig{
		DefinitionsPath:    strings.TrimSpace(os.Getenv("COUNCIL_DEFINITIONS")),
		DefaultCoordinator: getEnvOrDefault("COUNCIL_DEFAULT", "judge"),
		MemoryDir:          strings.TrimSpace(os.Getenv("COUNCIL_MEMORY_DIR")),
		HistoryLimit:       historyLimit,
		Timeout:            timeout,
	}, nil
}

func toFloat32(v *float64) *float32 {
	if v == nil {
		return nil
	}
	val := float32(*v)
	return &val
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
