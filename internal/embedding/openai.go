package embedding

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAIModel 通过 OpenAI 兼容接口为对话文本生成嵌入向量，
// 供语义记忆在 Milvus 中做相似检索。
type OpenAIModel struct {
	client *openai.Client
	model  string
}

// NewOpenAIModel 创建 OpenAI Embedding 客户端。
func NewOpenAIModel(apiKey, modelName string) (*OpenAIModel, error) {
	client := openai.NewClientWithConfig(openai.DefaultConfig(apiKey))
	return &OpenAIModel{client: client, model: modelName}, nil
}

// Embed 为单条文本生成嵌入向量，内部走批量接口。
func (m *OpenAIModel) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch 为一批文本生成嵌入向量，返回顺序与输入一致。
func (m *OpenAIModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := m.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(m.model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		embeddings[i] = d.Embedding
	}
	return embeddings, nil
}
