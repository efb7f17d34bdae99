package ingest

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/HildaM/logs/slog"
	"github.com/hildam/paper-qa-go/entity/conf"
	"github.com/hildam/paper-qa-go/repo/metrics"
)

// Embedder 分块向量化依赖
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkStore 向量索引写入依赖
type ChunkStore interface {
	InsertChunk(ctx context.Context, filename string, page int, content string, emb []float32) error
}

// Indexer 文档摄取流水线：PDF字节 → 按页提取 → 定长重叠分块 → 向量化 → 写入索引。
// QA核心只消费产出的索引，从不经由此路径写入
type Indexer struct {
	embedder Embedder
	store    ChunkStore
	cfg      conf.IngestConfig
}

// NewIndexer 创建摄取流水线
func NewIndexer(embedder Embedder, store ChunkStore, cfg conf.IngestConfig) *Indexer {
	return &Indexer{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
	}
}

// pageChunk 摄取的一个分块及其来源页
type pageChunk struct {
	page    int
	content string
}

// IndexPDF 摄取一份PDF，返回写入的分块数。
// 向量化按配置并发上限并行，任一分块失败则整体失败
func (ix *Indexer) IndexPDF(ctx context.Context, data []byte, filename string) (int, error) {
	pages, err := ExtractPDFPages(data)
	if err != nil {
		return 0, err
	}

	var chunks []pageChunk
	for _, pg := range pages {
		for _, c := range ChunkText(pg.Text, ix.cfg.ChunkSize, ix.cfg.ChunkOverlap) {
			chunks = append(chunks, pageChunk{page: pg.Page, content: c})
		}
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("index pdf failed, no chunks produced from %s", filename)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Concurrency)

	var indexed int64
	for _, c := range chunks {
		g.Go(func() error {
			emb, err := ix.embedder.Embed(gctx, c.content)
			if err != nil {
				return fmt.Errorf("index pdf failed, embed chunk err: %w", err)
			}
			if err := ix.store.InsertChunk(gctx, filename, c.page, c.content, emb); err != nil {
				return err
			}
			atomic.AddInt64(&indexed, 1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	metrics.ChunksIndexed.Add(float64(indexed))
	slog.Info("IndexPDF done, file = %s, pages = %d, chunks = %d", filename, len(pages), indexed)
	return int(indexed), nil
}
