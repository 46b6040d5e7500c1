package models

// GenerateContentRequest 定义了向 LLM 发起文本生成的请求结构。
type GenerateContentRequest struct {
	System      string  `json:"system"`      // 系统提示词
	Prompt      string  `json:"prompt"`      // 用户提示词
	Temperature float32 `json:"temperature"` // 采样温度
	MaxTokens   int     `json:"max_tokens"`  // 最大生成 token 数 (0 表示不限制)
}

// GenerateContentResponse 定义了 LLM 文本生成的响应结构。
type GenerateContentResponse struct {
	Text string `json:"text"` // 生成的文本
}
