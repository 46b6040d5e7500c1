package embedding

import "context"

// Embedding 定义了所有 embedding 模型需要实现的接口。
// 会话轮次的语义检索依赖它把文本转换为向量；向量的具体计算方式对调用方不可见。
type Embedding interface {
	// Embed 为单个文本生成嵌入向量。
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch 为一批文本生成嵌入向量。
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelType 是一个枚举类型，用于表示不同的模型厂商。
type ModelType string

const (
	OpenAI ModelType = "openai" // OpenAI 模型类型。
	Google ModelType = "gemini" // Google 模型类型。
)
