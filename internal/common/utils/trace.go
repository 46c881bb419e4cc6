package utils

import (
	"context"
	"log/slog"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// BeginSubsegment はX-Rayのサブセグメントを開始し、終了関数を返します
// 親セグメントがコンテキストに無い場合（ローカル実行やテスト）は何もしません
func BeginSubsegment(ctx context.Context, name string) (context.Context, func(error)) {
	if xray.GetSegment(ctx) == nil {
		return ctx, func(error) {}
	}
	ctx, seg := xray.BeginSubsegment(ctx, name)
	if seg == nil {
		return ctx, func(error) {}
	}
	return ctx, func(err error) { seg.Close(err) }
}

// AddMetadata は現在のセグメントにメタデータを追加します
func AddMetadata(ctx context.Context, log *slog.Logger, key string, value any) {
	seg := xray.GetSegment(ctx)
	if seg == nil {
		return
	}
	if err := seg.AddMetadata(key, value); err != nil {
		log.Warn("failed to add metadata", slog.String("key", key), slog.String("error", err.Error()))
	}
}
