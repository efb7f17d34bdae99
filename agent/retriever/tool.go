package retriever

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/HildaM/logs/slog"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/hildam/paper-qa-go/entity/consts"
	"github.com/hildam/paper-qa-go/entity/model"
	"github.com/hildam/paper-qa-go/entity/qaerr"
	"github.com/hildam/paper-qa-go/repo/serialize"
)

// Retriever 向量索引检索契约：幂等、无副作用，
// 索引不可达时返回 qaerr.ErrRetrievalUnavailable
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]model.Passage, error)
}

// retrievalTool 检索工具，流水线中唯一的工具能力，只挂在检索协调者上。
// 每次请求一个实例，按调用顺序累计原始段落供 router 一次性序列化
type retrievalTool struct {
	retriever Retriever
	topK      int

	mu        sync.Mutex
	collected []model.Passage
}

// newRetrievalTool 创建检索工具实例
func newRetrievalTool(r Retriever, topK int) *retrievalTool {
	return &retrievalTool{
		retriever: r,
		topK:      topK,
	}
}

// Info 工具元信息
func (t *retrievalTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: consts.RetrievalToolName,
		Desc: "Search the vector database for document chunks relevant to a query. " +
			"Returns the top matching chunks with page references.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "The search query string to find relevant document chunks.",
				Required: true,
			},
		}),
	}, nil
}

// InvokableRun 执行一次检索。零命中不是失败（跳过该子问题继续），
// 索引不可达的错误原样上抛以中止整个流水线
func (t *retrievalTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", fmt.Errorf("retrieval tool failed, unmarshal params err: %w", err)
	}
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return "", fmt.Errorf("retrieval tool failed, empty query")
	}

	passages, err := t.retriever.Search(ctx, query, t.topK)
	if err != nil {
		slog.Error("retrieval tool failed, query = %s, err = %v", query, err)
		// 索引故障统一归类，不依赖检索器实现自行包装
		if !errors.Is(err, qaerr.ErrRetrievalUnavailable) {
			err = fmt.Errorf("%w: %v", qaerr.ErrRetrievalUnavailable, err)
		}
		return "", err
	}
	slog.Debug("retrieval tool done, query = %s, hits = %d", query, len(passages))

	if len(passages) == 0 {
		return "no relevant chunks found", nil
	}

	t.mu.Lock()
	t.collected = append(t.collected, passages...)
	t.mu.Unlock()

	// 给模型看的是本次调用的段落；最终上下文由 router 对全部段落统一编号
	return serialize.Chunks(passages), nil
}

// Passages 返回累计的段落副本，按工具调用顺序排列
func (t *retrievalTool) Passages() []model.Passage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.Passage, len(t.collected))
	copy(out, t.collected)
	return out
}
