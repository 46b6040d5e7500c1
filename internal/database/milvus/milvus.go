package milvus

import (
	"context"
	"fmt"
	"log"
	"sync"

	"wa_scheduler/internal/config"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

var (
	instance *MilvusClient
	once     sync.Once
	initErr  error
)

// ErrNotFound 在搜索操作没有结果时返回。
var ErrNotFound = fmt.Errorf("not found")

// MilvusClient 包含了 Milvus 客户端实例和相关配置。
// 它管理用于会话上下文的单一集合，字段布局见 EnsureCollection。
type MilvusClient struct {
	Client client.Client        // Milvus 客户端实例。
	Config *config.MilvusConfig // Milvus 配置。
}

// GetClient 使用单例模式创建并返回一个 Milvus 客户端实例。
func GetClient(ctx context.Context, cfg *config.MilvusConfig) (*MilvusClient, error) {
	once.Do(func() {
		// 使用配置中的地址创建 Milvus 客户端。
		c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
		if err != nil {
			initErr = fmt.Errorf("无法连接到 Milvus: %w", err)
			return
		}
		log.Println("✅ 成功连接到 Milvus!")
		instance = &MilvusClient{Client: c, Config: cfg}
	})
	return instance, initErr
}

// EnsureCollection 确保会话上下文集合存在，不存在时创建并建立索引。
// 集合字段: id (VarChar, 主键), phone (VarChar), message (VarChar),
// intent (VarChar, JSON 快照), ts (Int64), embedding (FloatVector)。
func (c *MilvusClient) EnsureCollection(ctx context.Context) error {
	collName := c.Config.CollectionName

	has, err := c.Client.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("检查集合 '%s' 是否存在失败: %w", collName, err)
	}
	if has {
		return nil
	}

	dim := fmt.Sprintf("%d", c.Config.VectorDim)
	schema := &entity.Schema{
		CollectionName: collName,
		Description:    "per-user conversation turns with embeddings",
		Fields: []*entity.Field{
			{Name: "id", DataType: entity.FieldTypeVarChar, PrimaryKey: true, TypeParams: map[string]string{"max_length": "64"}},
			{Name: "phone", DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "32"}},
			{Name: "message", DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "2048"}},
			{Name: "intent", DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "4096"}},
			{Name: "ts", DataType: entity.FieldTypeInt64},
			{Name: "embedding", DataType: entity.FieldTypeFloatVector, TypeParams: map[string]string{"dim": dim}},
		},
	}

	if err := c.Client.CreateCollection(ctx, schema, 1); err != nil {
		return fmt.Errorf("创建集合 '%s' 失败: %w", collName, err)
	}

	// 为向量字段建立索引，使用余弦相似度。
	idx, err := entity.NewIndexIvfFlat(entity.COSINE, 128)
	if err != nil {
		return fmt.Errorf("构建索引参数失败: %w", err)
	}
	if err := c.Client.CreateIndex(ctx, collName, "embedding", idx, false); err != nil {
		return fmt.Errorf("为集合 '%s' 创建索引失败: %w", collName, err)
	}

	log.Printf("✅ 集合 '%s' 已创建并建立索引。", collName)
	return nil
}

// Insert 向集合中写入一条会话轮次记录。
func (c *MilvusClient) Insert(ctx context.Context, id, phone, message, intentJSON string, ts int64, vector []float32) error {
	collName := c.Config.CollectionName

	idCol := entity.NewColumnVarChar("id", []string{id})
	phoneCol := entity.NewColumnVarChar("phone", []string{phone})
	messageCol := entity.NewColumnVarChar("message", []string{message})
	intentCol := entity.NewColumnVarChar("intent", []string{intentJSON})
	tsCol := entity.NewColumnInt64("ts", []int64{ts})
	vectorCol := entity.NewColumnFloatVector("embedding", c.Config.VectorDim, [][]float32{vector})

	if _, err := c.Client.Insert(ctx, collName, "" /* default partition */, idCol, phoneCol, messageCol, intentCol, tsCol, vectorCol); err != nil {
		return fmt.Errorf("向 Milvus 插入数据失败: %w", err)
	}
	return nil
}

// Search 在集合中执行向量相似度搜索，expr 用于按用户等条件过滤。
func (c *MilvusClient) Search(ctx context.Context, topK int, vector []float32, expr string) ([]client.SearchResult, error) {
	collName := c.Config.CollectionName

	if err := c.Client.LoadCollection(ctx, collName, false); err != nil {
		return nil, fmt.Errorf("加载集合 '%s' 失败: %w", collName, err)
	}

	sp, _ := entity.NewIndexIvfFlatSearchParam(10)
	searchVectors := []entity.Vector{entity.FloatVector(vector)}

	results, err := c.Client.Search(
		ctx,
		collName,
		nil,
		expr,
		[]string{"phone", "message", "intent", "ts"},
		searchVectors,
		"embedding",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("在集合 '%s' 中搜索失败: %w", collName, err)
	}
	return results, nil
}

// Delete 按表达式删除集合中的记录（留给外部的按龄清理策略使用）。
func (c *MilvusClient) Delete(ctx context.Context, expr string) error {
	if err := c.Client.Delete(ctx, c.Config.CollectionName, "", expr); err != nil {
		return fmt.Errorf("从 Milvus 删除数据失败: %w", err)
	}
	return nil
}

// Close 安全地关闭与 Milvus 的连接。
func (c *MilvusClient) Close() {
	if c.Client != nil {
		c.Client.Close()
		log.Println("ℹ️ 已安全关闭 Milvus 连接。")
	}
}

// HealthCheck 检查 Milvus 连接的健康状况。
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("Milvus client is nil")
	}
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("Milvus health check failed: %w", err)
	}
	return nil
}
