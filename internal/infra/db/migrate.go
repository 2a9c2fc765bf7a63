package db

import (
	"database/sql"
	"fmt"
)

// MigrateUp creates the topics schema. The embedding column dimension
// must match the configured embedder; changing the dimension requires a
// new table.
func MigrateUp(db *sql.DB, embeddingDim int) error {
	if embeddingDim <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim)
	}

	// pgvector拡張を有効化
	// エラーを無視(既に存在する場合やスーパーユーザー権限がない場合)
	_, _ = db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`)

	if _, err := db.Exec(fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS topics (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    summary     TEXT,
    source      TEXT,
    embedding   vector(%d) NOT NULL,
    accepted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, embeddingDim)); err != nil {
		return err
	}

	indexes := []string{
		// ORDER BY accepted_at DESC で使用
		`CREATE INDEX IF NOT EXISTS idx_topics_accepted_at ON topics(accepted_at DESC)`,
		// ソース別絞り込み用
		`CREATE INDEX IF NOT EXISTS idx_topics_source ON topics(source)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	// 近似最近傍検索用インデックス
	// エラーを無視(pgvector拡張がない場合や行数不足の場合)
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_topics_embedding
ON topics USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`)

	return nil
}
