package service

import (
	"context"
	"strings"
)

// llmLabelKey 上下文键，承载一次 LLM 调用的观测标签
type llmLabelKey int

const (
	labelWorkflow llmLabelKey = iota
	labelProvider
)

// llmLabelUnknown 调用方未标注时指标与 span 使用的兜底标签值
const llmLabelUnknown = "unknown"

// WithLLMCall 在上下文中标注本次 LLM 调用所属的工作流与模型提供商。
// 回调层拿不到调用方信息，只能从上下文取标签给指标和 span 归因。
func WithLLMCall(ctx context.Context, workflow, provider string) context.Context {
	if ctx == nil {
		return nil
	}
	if w := strings.TrimSpace(workflow); w != "" {
		ctx = context.WithValue(ctx, labelWorkflow, w)
	}
	if p := strings.TrimSpace(provider); p != "" {
		ctx = context.WithValue(ctx, labelProvider, p)
	}
	return ctx
}

// WorkflowFromContext 取出工作流标签，缺失时返回兜底值
func WorkflowFromContext(ctx context.Context) string {
	return labelFromContext(ctx, labelWorkflow)
}

// ProviderFromContext 取出提供商标签，缺失时返回兜底值
func ProviderFromContext(ctx context.Context) string {
	return labelFromContext(ctx, labelProvider)
}

func labelFromContext(ctx context.Context, key llmLabelKey) string {
	if ctx == nil {
		return llmLabelUnknown
	}
	s, ok := ctx.Value(key).(string)
	if !ok || strings.TrimSpace(s) == "" {
		return llmLabelUnknown
	}
	return strings.TrimSpace(s)
}
