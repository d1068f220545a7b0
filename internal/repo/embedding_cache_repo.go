package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/newsrag/internal/model"
	"github.com/xxxsen/newsrag/internal/pkg/dbutil"
)

// EmbeddingCacheRepo is the persistence side of the shared embedding
// cache: one row per (model, content hash), vector stored as pgvector.
type EmbeddingCacheRepo struct {
	db *sql.DB
}

func NewEmbeddingCacheRepo(db *sql.DB) *EmbeddingCacheRepo {
	return &EmbeddingCacheRepo{db: db}
}

func (r *EmbeddingCacheRepo) GetBatch(ctx context.Context, modelName string, hashes []string) (map[string][]float32, error) {
	if len(hashes) == 0 {
		return map[string][]float32{}, nil
	}
	query := `SELECT content_hash, embedding FROM embedding_cache WHERE model_name = ? AND content_hash IN (?)`
	query, args, err := sqlx.In(query, modelName, hashes)
	if err != nil {
		return nil, err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[string][]float32)
	for rows.Next() {
		var hash string
		var embedding pgvector.Vector
		if err := rows.Scan(&hash, &embedding); err != nil {
			return nil, err
		}
		result[hash] = embedding.Slice()
	}
	return result, rows.Err()
}

func (r *EmbeddingCacheRepo) SaveBatch(ctx context.Context, items []*model.EmbeddingCache) error {
	if len(items) == 0 {
		return nil
	}
	data := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		data = append(data, map[string]interface{}{
			"model_name":   item.ModelName,
			"content_hash": item.ContentHash,
			"embedding":    pgvector.NewVector(item.Embedding),
			"ctime":        item.Ctime,
		})
	}
	query, args, err := builder.BuildInsert("embedding_cache", data)
	if err != nil {
		return err
	}
	query += ` ON CONFLICT (model_name, content_hash) DO UPDATE SET
		embedding = EXCLUDED.embedding,
		ctime = EXCLUDED.ctime`
	query, args = dbutil.Finalize(query, args)
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *EmbeddingCacheRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	const query = `DELETE FROM embedding_cache WHERE ctime < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
