// Package storage はエンティティのコレクションを丸ごと読み書きするストレージアダプタです。
// コレクションはレコードの配列として、呼び出し元が指定したロケーションに保存されます。
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// Store はコレクション単位の永続化を担当するインターフェースです
//
// Load は欠損や破損したデータに対してエラーを返さず、空のコレクションを返します。
// Save はコレクション全体を書き換え、失敗した場合は Persistence 種別のエラーを返します。
type Store interface {
	Load(ctx context.Context, location string) ([]model.Record, error)
	Save(ctx context.Context, location string, records []model.Record) error
}

// DecodeCollection はJSON配列をレコードに変換します
// パースできない場合や配列でない場合はエラーを記録して空を返します。
// オブジェクトでない要素は警告を出してスキップします
func DecodeCollection(log *slog.Logger, location string, data []byte) []model.Record {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		log.Error("corrupt collection, using empty list",
			slog.String("location", location), slog.String("error", err.Error()))
		return []model.Record{}
	}
	if dec.More() {
		log.Error("corrupt collection: trailing data, using empty list", slog.String("location", location))
		return []model.Record{}
	}

	items, ok := raw.([]any)
	if !ok {
		log.Error("invalid collection structure: expected array, using empty list",
			slog.String("location", location), slog.String("got", fmt.Sprintf("%T", raw)))
		return []model.Record{}
	}

	records := make([]model.Record, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			log.Warn("skipping non-object record",
				slog.String("location", location), slog.Int("index", i))
			continue
		}
		records = append(records, model.Record(obj))
	}
	return records
}

// EncodeCollection はレコードをインデント付きのJSON配列に変換します
func EncodeCollection(records []model.Record) ([]byte, error) {
	if records == nil {
		records = []model.Record{}
	}
	return json.MarshalIndent(records, "", "  ")
}
