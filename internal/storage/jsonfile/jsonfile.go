package jsonfile

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/uma-arai/sbcntr-hotel/internal/common/apperror"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/lib/logger/sl"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store はロケーションをファイルパスとして扱うJSONファイルストアです
type Store struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Store {
	return &Store{log: log}
}

// Load はファイルからコレクションを読み込みます
// ファイルが無い場合は新規環境とみなし、警告を出して空を返します
func (s *Store) Load(ctx context.Context, location string) ([]model.Record, error) {
	const op = "jsonfile.Load"
	_, end := utils.BeginSubsegment(ctx, op)
	defer end(nil)

	log := s.log.With(slog.String("op", op), slog.String("location", location))

	data, err := os.ReadFile(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("file not found, using empty list")
			return []model.Record{}, nil
		}
		log.Error("failed to read file, using empty list", sl.Err(err))
		return []model.Record{}, nil
	}

	return storage.DecodeCollection(log, location, data), nil
}

// Save はコレクション全体をファイルに書き込みます
// 一時ファイルに書いてからリネームするため、途中で失敗しても既存のファイルは壊れません
func (s *Store) Save(ctx context.Context, location string, records []model.Record) (err error) {
	const op = "jsonfile.Save"
	_, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	data, err := storage.EncodeCollection(records)
	if err != nil {
		return apperror.Wrap(apperror.KindPersistence, op, "failed to encode "+location, err)
	}

	dir := filepath.Dir(location)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperror.Wrap(apperror.KindPersistence, op, "failed to create directory "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(location)+".*.tmp")
	if err != nil {
		return apperror.Wrap(apperror.KindPersistence, op, "failed to save "+location, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return apperror.Wrap(apperror.KindPersistence, op, "failed to save "+location, err)
	}
	if err = tmp.Close(); err != nil {
		return apperror.Wrap(apperror.KindPersistence, op, "failed to save "+location, err)
	}
	if err = os.Rename(tmpName, location); err != nil {
		return apperror.Wrap(apperror.KindPersistence, op, "failed to save "+location, err)
	}

	s.log.Debug("collection saved", slog.String("op", op), slog.String("location", location), slog.Int("count", len(records)))
	return nil
}
