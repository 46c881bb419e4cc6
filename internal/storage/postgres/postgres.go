package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/uma-arai/sbcntr-hotel/internal/common/apperror"
	"github.com/uma-arai/sbcntr-hotel/internal/common/database"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/lib/logger/sl"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/storage"
)

var _ storage.Store = (*Store)(nil)

const schema = `
	CREATE TABLE IF NOT EXISTS collections (
		location   TEXT PRIMARY KEY,
		records    JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`

// collectionRow は collections テーブルの1行です
type collectionRow struct {
	Location  string    `db:"location"`
	Records   string    `db:"records"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Store はコレクションをロケーションごとに1行のJSONBとして保存するストアです
// ファイルストアと同じく、保存は常にコレクション全体の書き換えです
type Store struct {
	db  *database.DB
	log *slog.Logger
}

func New(db *database.DB, log *slog.Logger) *Store {
	return &Store{db: db, log: log}
}

// EnsureSchema は collections テーブルを作成します
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return apperror.Wrap(apperror.KindPersistence, "postgres.EnsureSchema", "failed to create collections table", err)
	}
	return nil
}

// Load はロケーションに対応する行を読み込みます
// 行が無い場合は警告を出して空を返します
func (s *Store) Load(ctx context.Context, location string) (records []model.Record, err error) {
	const op = "postgres.Load"
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	log := s.log.With(slog.String("op", op), slog.String("location", location))

	var row collectionRow
	err = s.db.GetContext(ctx, &row,
		`SELECT location, records, updated_at FROM collections WHERE location = $1`, location)
	if errors.Is(err, sql.ErrNoRows) {
		log.Warn("collection not found, using empty list")
		return []model.Record{}, nil
	}
	if err != nil {
		log.Error("failed to query collection", sl.Err(err))
		return nil, apperror.Wrap(apperror.KindPersistence, op, "failed to load "+location, err)
	}

	return storage.DecodeCollection(log, location, []byte(row.Records)), nil
}

// Save はコレクション全体をUPSERTします
func (s *Store) Save(ctx context.Context, location string, records []model.Record) (err error) {
	const op = "postgres.Save"
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	data, err := storage.EncodeCollection(records)
	if err != nil {
		return apperror.Wrap(apperror.KindPersistence, op, "failed to encode "+location, err)
	}

	row := collectionRow{Location: location, Records: string(data), UpdatedAt: time.Now().UTC()}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO collections (location, records, updated_at)
		VALUES (:location, :records, :updated_at)
		ON CONFLICT (location) DO UPDATE
		SET records = EXCLUDED.records, updated_at = EXCLUDED.updated_at`, row)
	if err != nil {
		return apperror.Wrap(apperror.KindPersistence, op, "failed to save "+location, err)
	}
	return nil
}
