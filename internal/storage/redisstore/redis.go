package redisstore

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/uma-arai/sbcntr-hotel/internal/common/apperror"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/lib/logger/sl"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store はコレクションを1つのキーにJSON配列として保存するストアです
type Store struct {
	client *redis.Client
	prefix string
	log    *slog.Logger
}

func New(client *redis.Client, prefix string, log *slog.Logger) *Store {
	return &Store{client: client, prefix: prefix, log: log}
}

func (s *Store) key(location string) string {
	if s.prefix == "" {
		return location
	}
	return s.prefix + ":" + location
}

func (s *Store) Load(ctx context.Context, location string) (records []model.Record, err error) {
	const op = "redisstore.Load"
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	log := s.log.With(slog.String("op", op), slog.String("location", location))

	data, err := s.client.Get(ctx, s.key(location)).Bytes()
	if errors.Is(err, redis.Nil) {
		log.Warn("collection not found, using empty list")
		return []model.Record{}, nil
	}
	if err != nil {
		log.Error("failed to read collection", sl.Err(err))
		return nil, apperror.Wrap(apperror.KindPersistence, op, "failed to load "+location, err)
	}

	return storage.DecodeCollection(log, location, data), nil
}

func (s *Store) Save(ctx context.Context, location string, records []model.Record) (err error) {
	const op = "redisstore.Save"
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	data, err := storage.EncodeCollection(records)
	if err != nil {
		return apperror.Wrap(apperror.KindPersistence, op, "failed to encode "+location, err)
	}
	if err = s.client.Set(ctx, s.key(location), data, 0).Err(); err != nil {
		return apperror.Wrap(apperror.KindPersistence, op, "failed to save "+location, err)
	}
	return nil
}
