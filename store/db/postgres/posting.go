package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/jobpulse/jobpulse/store"
)

func (d *DB) CreatePosting(ctx context.Context, create *store.Posting) (bool, error) {
	fields := []string{
		"id", "title", "company", "description", "url", "location",
		"posted_ts", "scraped_ts",
	}
	args := []any{
		create.ID, create.Title, create.Company, create.Description,
		create.URL, create.Location, create.PostedTs, create.ScrapedTs,
	}

	stmt := `INSERT INTO posting (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT (id) DO NOTHING`

	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return false, errors.Wrap(err, "failed to create posting")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read rows affected")
	}
	return rows == 1, nil
}

func (d *DB) ListPostings(ctx context.Context, find *store.FindPosting) ([]*store.Posting, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "posting.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.PendingEmbedding; v != nil {
		if *v {
			where = append(where, "posting.has_embedding = FALSE")
		} else {
			where = append(where, "posting.has_embedding = TRUE")
		}
	}

	query := `
		SELECT
			id, title, company, description, url, location,
			posted_ts, scraped_ts, has_embedding, embedded_ts
		FROM posting
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY posting.scraped_ts ASC, posting.id ASC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query postings")
	}
	defer rows.Close()

	list := make([]*store.Posting, 0)
	for rows.Next() {
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
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan posting")
		}

		if postedTs.Valid {
			posting.PostedTs = &postedTs.Int64
		}
		if embeddedTs.Valid {
			posting.EmbeddedTs = &embeddedTs.Int64
		}
		list = append(list, &posting)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) MarkPostingEmbedded(ctx context.Context, id string, embeddedTs int64) (bool, error) {
	stmt := `
		UPDATE posting
		SET has_embedding = TRUE, embedded_ts = ` + placeholder(1) + `
		WHERE id = ` + placeholder(2)

	result, err := d.db.ExecContext(ctx, stmt, embeddedTs, id)
	if err != nil {
		return false, errors.Wrap(err, "failed to mark posting embedded")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read rows affected")
	}
	return rows == 1, nil
}

func (d *DB) GetPostingStats(ctx context.Context) (*store.PostingStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN has_embedding THEN 1 ELSE 0 END), 0)
		FROM posting`

	var stats store.PostingStats
	if err := d.db.QueryRowContext(ctx, query).Scan(&stats.Total, &stats.Embedded); err != nil {
		return nil, errors.Wrap(err, "failed to query posting stats")
	}
	stats.Pending = stats.Total - stats.Embedded
	return &stats, nil
}
