package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/hildam/paper-qa-go/entity/model"
)

// Store pgvector 支持的向量索引。QA核心只读，摄取流水线只写
type Store struct {
	pool *pgxpool.Pool
}

// New 建立 Postgres 连接池
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("vectorstore init failed, connect err: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close 释放连接池
func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema 建表。向量维度须与配置的向量化模型一致
func (s *Store) EnsureSchema(ctx context.Context, dimension int) error {
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id BIGSERIAL PRIMARY KEY,
			filename TEXT NOT NULL,
			page INT,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, dimension),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("vectorstore ensure schema failed, err: %w", err)
		}
	}
	return nil
}

// InsertChunk 写入一个分块及其向量
func (s *Store) InsertChunk(ctx context.Context, filename string, page int, content string, emb []float32) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO chunks (filename, page, content, embedding) VALUES ($1, $2, $3, $4)",
		filename, page, content, pgvector.NewVector(emb))
	if err != nil {
		return fmt.Errorf("vectorstore insert failed, err: %w", err)
	}
	return nil
}

// SearchSimilar 按余弦距离返回 top-k 最相似段落，幂等且无副作用
func (s *Store) SearchSimilar(ctx context.Context, emb []float32, k int) ([]model.Passage, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT content, page FROM chunks ORDER BY embedding <=> $1 LIMIT $2",
		pgvector.NewVector(emb), k)
	if err != nil {
		return nil, fmt.Errorf("vectorstore search failed, err: %w", err)
	}
	defer rows.Close()

	var out []model.Passage
	for rows.Next() {
		var content string
		var page *int
		if err := rows.Scan(&content, &page); err != nil {
			return nil, fmt.Errorf("vectorstore search failed, scan err: %w", err)
		}
		p := model.Passage{Content: content}
		if page != nil {
			p.Page = fmt.Sprintf("%d", *page)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vectorstore search failed, rows err: %w", err)
	}
	return out, nil
}
