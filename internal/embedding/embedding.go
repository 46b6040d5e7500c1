package embedding

import (
	"fmt"

	"wa_scheduler/internal/config"
)

// NewEmdModel 根据配置创建并返回一个 Embedding 模型实例。
// 当前支持 "openai" 与 "gemini" 两个提供商。
func NewEmdModel(cfg *config.EmbeddingConfig) (Embedding, error) {
	// 根据提供商类型创建相应的 Embedding 模型实例。
	switch ModelType(cfg.Provider) {
	case OpenAI:
		return NewOpenAIModel(cfg.APIKey, cfg.Model)
	case Google:
		return NewGoogleModel(cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider) // 如果提供商不支持，返回错误。
	}
}
