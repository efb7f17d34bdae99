package retriever

import (
	"context"
	"fmt"

	"github.com/hildam/paper-qa-go/entity/model"
	"github.com/hildam/paper-qa-go/entity/qaerr"
)

// Embedder 查询向量化依赖
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SimilaritySearcher 向量索引依赖
type SimilaritySearcher interface {
	SearchSimilar(ctx context.Context, emb []float32, k int) ([]model.Passage, error)
}

// VectorRetriever 组合向量化客户端与向量索引，实现检索契约：
// search(query, k) -> 有序段落序列。索引不可达时返回 ErrRetrievalUnavailable
type VectorRetriever struct {
	embedder Embedder
	store    SimilaritySearcher
}

// New 创建检索器
func New(embedder Embedder, store SimilaritySearcher) *VectorRetriever {
	return &VectorRetriever{
		embedder: embedder,
		store:    store,
	}
}

// Search 返回与查询最相似的 top-k 段落
func (r *VectorRetriever) Search(ctx context.Context, query string, k int) ([]model.Passage, error) {
	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", qaerr.ErrRetrievalUnavailable, err)
	}

	passages, err := r.store.SearchSimilar(ctx, emb, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", qaerr.ErrRetrievalUnavailable, err)
	}
	return passages, nil
}
