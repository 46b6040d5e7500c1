package llm

import (
	"context"
	"fmt"

	"wa_scheduler/internal/config"
	"wa_scheduler/internal/models"
)

// LLM 定义了所有大型语言模型客户端必须实现的通用接口。
// 模型内部行为对本系统不可见；调用方只依赖文本输入/输出契约及其失败模式。
type LLM interface {
	GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error)
}

// NewClient 是一个工厂函数，根据提供的配置创建并返回一个实现了 LLM 接口的客户端。
func NewClient(cfg config.LLMConfig) (LLM, error) {
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("no model configured for provider %s", cfg.Provider)
	}
	// 配置文件中的第一个模型是默认模型。
	modelName := cfg.Models[0].Name
	apiKey := cfg.Models[0].APIKey

	switch cfg.Provider {
	case "openai":
		return NewOpenAI(modelName, apiKey)
	case "gemini":
		return NewGemini(context.Background(), modelName, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
