package repository

import (
	"context"
	"log/slog"
	"sync"

	"github.com/uma-arai/sbcntr-hotel/internal/common/apperror"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/lib/logger/sl"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/storage"
)

// Repository はIDをキーにしたエンティティコレクションのCRUDです
type Repository[T model.Entity] interface {
	ListAll(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id string) (T, bool, error)
	Upsert(ctx context.Context, entity T) error
	Delete(ctx context.Context, id string) (bool, error)
}

// Decoder はレコードからエンティティを復元する関数です
type Decoder[T model.Entity] func(model.Record) (T, error)

// Collection はストア上の1つのロケーションに保存されたエンティティの集合です
// 更新は常にコレクション全体の書き換えになります
type Collection[T model.Entity] struct {
	name     string
	store    storage.Store
	location string
	decode   Decoder[T]
	log      *slog.Logger

	// mu は同一プロセス内の読み込み→更新→保存を直列化します
	mu sync.Mutex
}

var _ Repository[model.Hotel] = (*Collection[model.Hotel])(nil)

func NewCollection[T model.Entity](name string, store storage.Store, location string, decode Decoder[T], log *slog.Logger) *Collection[T] {
	return &Collection[T]{
		name:     name,
		store:    store,
		location: location,
		decode:   decode,
		log:      log.With(slog.String("repository", name), slog.String("location", location)),
	}
}

// Location はコレクションの保存先を返します
func (c *Collection[T]) Location() string {
	return c.location
}

// ListAll は全エンティティを返します
// 復元できないレコードは警告を出してスキップします
func (c *Collection[T]) ListAll(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.listAll(ctx, c.name+".ListAll")
}

// GetByID はIDに一致するエンティティを返します。見つからない場合は false を返します
func (c *Collection[T]) GetByID(ctx context.Context, id string) (T, bool, error) {
	op := c.name + ".GetByID"
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.listAll(ctx, op)
	if err != nil {
		return zero, false, err
	}
	if i := indexOf(items, id); i >= 0 {
		return items[i], true, nil
	}
	return zero, false, nil
}

// Upsert はIDが一致するエンティティを置き換え、無ければ末尾に追加して保存します
func (c *Collection[T]) Upsert(ctx context.Context, entity T) (err error) {
	op := c.name + ".Upsert"
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.listAll(ctx, op)
	if err != nil {
		return err
	}
	if i := indexOf(items, entity.EntityID()); i >= 0 {
		items[i] = entity
	} else {
		items = append(items, entity)
	}

	return c.saveAll(ctx, items)
}

// Delete はIDが一致するエンティティを削除して保存します。削除したかどうかを返します
func (c *Collection[T]) Delete(ctx context.Context, id string) (removed bool, err error) {
	op := c.name + ".Delete"
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.listAll(ctx, op)
	if err != nil {
		return false, err
	}
	i := indexOf(items, id)
	if i < 0 {
		return false, nil
	}
	items = append(items[:i], items[i+1:]...)

	if err := c.saveAll(ctx, items); err != nil {
		return false, err
	}
	return true, nil
}

// Filter は条件に一致するエンティティを返します
func (c *Collection[T]) Filter(ctx context.Context, op string, match func(T) bool) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.listAll(ctx, op)
	if err != nil {
		return nil, err
	}
	matched := make([]T, 0, len(items))
	for _, item := range items {
		if match(item) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

func (c *Collection[T]) listAll(ctx context.Context, op string) (items []T, err error) {
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	records, err := c.store.Load(ctx, c.location)
	if err != nil {
		return nil, err
	}

	items = make([]T, 0, len(records))
	for i, rec := range records {
		item, err := c.decode(rec)
		if err != nil {
			corrupt := apperror.Wrap(apperror.KindCorruptData, op, "invalid record skipped", err)
			c.log.Warn("skipping invalid record", slog.Int("index", i), sl.Err(corrupt))
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *Collection[T]) saveAll(ctx context.Context, items []T) error {
	records := make([]model.Record, 0, len(items))
	for _, item := range items {
		records = append(records, item.ToRecord())
	}
	return c.store.Save(ctx, c.location, records)
}

func indexOf[T model.Entity](items []T, id string) int {
	for i, item := range items {
		if item.EntityID() == id {
			return i
		}
	}
	return -1
}
