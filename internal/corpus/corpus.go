// Package corpus stores historical proposals in Postgres. The scorer reads
// them back as its past-document corpus; ingest writes them.
package corpus

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"proposal-rag/internal/config"
)

type Proposal struct {
	bun.BaseModel `bun:"table:proposals,alias:p"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Filename      string    `bun:"filename,notnull"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding"`
}

const defaultVectorDim = 768

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.DSN + "?sslmode=disable"
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Password))), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// InitDB creates the proposals table. The embedding column's vector width
// follows the configured embedding dimension so it always matches what the
// startup probe validated.
func InitDB(ctx context.Context, db *bun.DB, dimension int) error {
	_, err := db.ExecContext(ctx, createTableSQL(dimension))
	return err
}

func createTableSQL(dimension int) string {
	if dimension <= 0 {
		dimension = defaultVectorDim
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS proposals (
	id BIGSERIAL PRIMARY KEY,
	filename VARCHAR NOT NULL,
	content VARCHAR NOT NULL,
	embedding vector(%d)
)`, dimension)
}

func StoreProposal(ctx context.Context, db *bun.DB, filename, content string, embedding []float32) error {
	proposal := &Proposal{
		Filename:  filename,
		Content:   content,
		Embedding: embedding,
	}
	_, err := db.NewInsert().Model(proposal).Exec(ctx)
	return err
}

// LoadCorpus returns the texts of up to limit stored proposals, newest first.
func LoadCorpus(ctx context.Context, db *bun.DB, limit int) ([]string, error) {
	var proposals []Proposal
	err := db.NewSelect().
		Model(&proposals).
		Column("content").
		OrderExpr("id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(proposals))
	for i, p := range proposals {
		texts[i] = p.Content
	}
	return texts, nil
}

// drop table proposals

func DropProposals(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*Proposal)(nil)).IfExists().Exec(ctx)
	return err
}

// Source adapts the store to the pipeline's corpus interface.
type Source struct {
	db    *bun.DB
	limit int
}

func NewSource(db *bun.DB, limit int) *Source {
	return &Source{db: db, limit: limit}
}

func (s *Source) Load(ctx context.Context) ([]string, error) {
	return LoadCorpus(ctx, s.db, s.limit)
}
