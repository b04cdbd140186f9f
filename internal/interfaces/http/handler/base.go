package handler

import (
	"fmt"
	"strings"

	"github.com/dslans/NGA-opendata/internal/config"
)

// resolveProviderModel 解析 LLM Provider 和 Model
func resolveProviderModel(cfg *config.Config, provider, model string) (string, string, error) {
	if cfg == nil {
		return "", "", fmt.Errorf("server config not configured")
	}

	p := strings.TrimSpace(provider)
	if p == "" {
		p = strings.TrimSpace(cfg.LLM.DefaultProvider)
	}
	if p == "" {
		return "", "", fmt.Errorf("llm provider not specified")
	}
	if len(p) > 32 {
		return "", "", fmt.Errorf("llm provider too long")
	}

	providerCfg, ok := cfg.LLM.Providers[p]
	if !ok {
		return "", "", fmt.Errorf("llm provider not found: %s", p)
	}

	m := strings.TrimSpace(model)
	if m == "" {
		m = strings.TrimSpace(providerCfg.Model)
	}
	if len(m) > 64 {
		return "", "", fmt.Errorf("llm model too long")
	}
	return p, m, nil
}

// resolveLimit 解析请求中的可选 limit
// 未传时返回 0 交由服务层取默认值，显式传入非正数视为非法
func resolveLimit(limit *int) (int, error) {
	if limit == nil {
		return 0, nil
	}
	if *limit <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	return *limit, nil
}
