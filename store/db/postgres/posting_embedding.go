package postgres

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/jobpulse/jobpulse/store"
)

// UpsertPostingEmbedding inserts or updates a posting embedding.
func (d *DB) UpsertPostingEmbedding(ctx context.Context, embedding *store.PostingEmbedding) error {
	stmt := `
		INSERT INTO posting_embedding (posting_id, embedding, content, created_ts, updated_ts)
		VALUES (` + placeholders(5) + `)
		ON CONFLICT (posting_id)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			content = EXCLUDED.content,
			updated_ts = EXCLUDED.updated_ts
	`

	vector := pgvector.NewVector(embedding.Embedding)
	if _, err := d.db.ExecContext(ctx, stmt,
		embedding.PostingID,
		vector,
		embedding.Content,
		embedding.CreatedTs,
		embedding.UpdatedTs,
	); err != nil {
		return errors.Wrap(err, "failed to upsert posting embedding")
	}

	return nil
}

// VectorSearchPostings performs vector similarity search using pgvector.
// The <=> operator computes cosine distance (1 - cosine_similarity), so
// ordering by distance ascending returns the most similar first.
func (d *DB) VectorSearchPostings(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.PostingSearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT
			p.id, p.title, p.company, p.description, p.url, p.location,
			p.posted_ts, p.scraped_ts, p.has_embedding, p.embedded_ts,
			e.content,
			1 - (e.embedding <=> ` + placeholder(1) + `) AS score
		FROM posting p
		INNER JOIN posting_embedding e ON p.id = e.posting_id
		ORDER BY e.embedding <=> ` + placeholder(2) + `
		LIMIT ` + placeholder(3)

	vector := pgvector.NewVector(opts.Vector)
	rows, err := d.db.QueryContext(ctx, query, vector, vector, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search")
	}
	defer rows.Close()

	results := []*store.PostingSearchResult{}
	for rows.Next() {
		var result store.PostingSearchResult
		var posting store.Posting
		var postedTs, embeddedTs sql.NullInt64

		if err := rows.Scan(
			&posting.ID,
			&posting.Title,
			&posting.Company,
			&posting.Description,
			&posting.URL,
			&posting.Location,
			&postedTs,
			&posting.ScrapedTs,
			&posting.HasEmbedding,
			&embeddedTs,
			&result.Content,
			&result.Score,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan vector search result")
		}

		if postedTs.Valid {
			posting.PostedTs = &postedTs.Int64
		}
		if embeddedTs.Valid {
			posting.EmbeddedTs = &embeddedTs.Int64
		}
		result.Posting = &posting
		results = append(results, &result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// CountPostingEmbeddings returns the number of indexed entries, used for
// reconciliation against the posting table's embedded count.
func (d *DB) CountPostingEmbeddings(ctx context.Context) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posting_embedding").Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count posting embeddings")
	}
	return count, nil
}
