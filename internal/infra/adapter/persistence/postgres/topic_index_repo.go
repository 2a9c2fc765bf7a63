// Package postgres implements the topic similarity index on
// PostgreSQL with the pgvector extension.
//
// Expected schema (managed by ops tooling, not migrated here):
//
//	CREATE TABLE topics (
//	    id          TEXT PRIMARY KEY,
//	    title       TEXT NOT NULL,
//	    summary     TEXT NOT NULL DEFAULT '',
//	    source      TEXT NOT NULL DEFAULT '',
//	    embedding   vector NOT NULL,
//	    accepted_at TIMESTAMPTZ NOT NULL
//	);
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/hretheum/vectorwave.io-sub009/internal/domain/entity"
	"github.com/hretheum/vectorwave.io-sub009/internal/repository"
)

// DefaultSearchTimeout is the default timeout for similarity search queries.
const DefaultSearchTimeout = 5 * time.Second

// TopicIndexRepo implements repository.TopicIndexRepository for PostgreSQL.
type TopicIndexRepo struct {
	db *sql.DB
}

// NewTopicIndexRepo creates a new pgvector-backed topic index.
func NewTopicIndexRepo(db *sql.DB) repository.TopicIndexRepository {
	return &TopicIndexRepo{db: db}
}

// Insert persists an accepted topic into the index.
func (repo *TopicIndexRepo) Insert(ctx context.Context, item *entity.IndexedItem) error {
	if item == nil {
		return fmt.Errorf("Insert: item is nil")
	}
	if err := item.Validate(); err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

	vector := pgvector.NewVector(item.Embedding)

	const query = `
INSERT INTO topics (id, title, summary, source, embedding, accepted_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := repo.db.ExecContext(ctx, query,
		item.ID,
		item.Title,
		item.Summary,
		item.Source,
		vector,
		item.AcceptedAt,
	)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

	return nil
}

// SearchSimilar finds topics nearest to the given embedding.
// Uses the cosine distance operator (<=>), most-similar-first.
func (repo *TopicIndexRepo) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]repository.SimilarTopic, error) {
	searchCtx, cancel := context.WithTimeout(ctx, DefaultSearchTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	vector := pgvector.NewVector(embedding)

	const query = `
SELECT id, title, 1 - (embedding <=> $1) AS similarity
FROM topics
ORDER BY embedding <=> $1
LIMIT $2`

	rows, err := repo.db.QueryContext(searchCtx, query, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("SearchSimilar: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]repository.SimilarTopic, 0, limit)
	for rows.Next() {
		var result repository.SimilarTopic
		if err := rows.Scan(&result.ID, &result.Title, &result.Similarity); err != nil {
			return nil, fmt.Errorf("SearchSimilar: Scan: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SearchSimilar: %w", err)
	}

	return results, nil
}

// Count returns the number of indexed topics.
func (repo *TopicIndexRepo) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM topics`

	var count int64
	if err := repo.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}
