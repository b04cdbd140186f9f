package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "github.com/dslans/NGA-opendata/internal/domain/service"
	wfmodel "github.com/dslans/NGA-opendata/internal/workflow/model"
	wfnode "github.com/dslans/NGA-opendata/internal/workflow/node"
	workflowport "github.com/dslans/NGA-opendata/internal/workflow/port"
	workflowprompt "github.com/dslans/NGA-opendata/internal/workflow/prompt"
)

// maxThemeRunes 限制注入提示词的主题长度，超长部分截断。
const maxThemeRunes = 2000

type KeywordExtractChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.KeywordExtractInput, *schema.Message]
	chainErr  error
}

func NewKeywordExtractChain(factory workflowport.ChatModelFactory) *KeywordExtractChain {
	return &KeywordExtractChain{factory: factory}
}

func (c *KeywordExtractChain) Invoke(ctx context.Context, in *wfmodel.KeywordExtractInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

type keywordExtractChainState struct {
	In       *wfmodel.KeywordExtractInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *KeywordExtractChain) getChain() (compose.Runnable[*wfmodel.KeywordExtractInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *KeywordExtractChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.KeywordExtractInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.KeywordExtractInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.KeywordExtractInput) (*keywordExtractChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &keywordExtractChainState{In: in}, nil
		}),
		compose.WithNodeName("keyword_extract.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *keywordExtractChainState) (*keywordExtractChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatKeywordExtractMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("keyword_extract.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *keywordExtractChainState) (*keywordExtractChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithLLMCall(ctx, "keyword_extract", strings.TrimSpace(st.In.Provider))
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildKeywordExtractModelOptions(st.In)...)
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("keyword_extract.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *keywordExtractChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("keyword_extract.finalize"),
	)

	return chain.Compile(ctx)
}

var defaultPromptRegistry = workflowprompt.NewRegistry()

func formatKeywordExtractMessages(ctx context.Context, in *wfmodel.KeywordExtractInput) ([]*schema.Message, error) {
	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptKeywordExtractV1)
	if err != nil {
		return nil, err
	}
	maxKeywords := in.MaxKeywords
	if maxKeywords <= 0 {
		maxKeywords = 10
	}
	vars := map[string]any{
		"theme":        wfnode.TruncateByRunes(strings.TrimSpace(in.Theme), maxThemeRunes),
		"max_keywords": maxKeywords,
	}
	return tpl.Format(ctx, vars)
}

func buildKeywordExtractModelOptions(in *wfmodel.KeywordExtractInput) []model.Option {
	opts := make([]model.Option, 0, 3)
	if in == nil {
		return opts
	}
	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if strings.TrimSpace(in.Model) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(in.Model)))
	}
	return opts
}
