package utils

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"
)

// ErrTimeout はバッチ処理が制限時間内に終わらなかったことを表します
var ErrTimeout = errors.New("batch process timed out")

// RunWithTimeout は fn を制限時間付きで実行します
// 親コンテキストのキャンセルとタイムアウトは区別して返します
func RunWithTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- fn(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %v", ErrTimeout, timeout)
		}
		return fmt.Errorf("batch process canceled: %w", ctx.Err())
	}
}

// WithStack はエラーにスタックトレースを付与します。nil はそのまま返します
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w\nStack trace:\n%s", err, debug.Stack())
}
