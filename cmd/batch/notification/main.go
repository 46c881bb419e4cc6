package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/joho/godotenv"

	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/lib/logger/sl"
	"github.com/uma-arai/sbcntr-hotel/internal/service/batch"
)

const (
	projectName = "sbcntr-hotel-notification"
)

func main() {
	// コマンドライン引数のパース
	timeout := flag.Duration("timeout", 5*time.Minute, "バッチ処理のタイムアウト時間")
	limit := flag.Int("limit", batch.DefaultNotificationLimit, "1回の実行で処理するイベントの上限")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", sl.Err(err))
	}

	env := os.Getenv("ENV")
	log := setupLogger(env)
	slog.SetDefault(log)

	// 設定の読み込み
	cfg, err := config.LoadConfig("")
	if err != nil {
		fatal(log, "failed to load config", err)
	}

	// X-Ray設定
	if cfg.EnableTracing {
		if err := xray.Configure(xray.Config{
			DaemonAddr:     "127.0.0.1:2000", // X-Rayデーモンのアドレス
			ServiceVersion: "1.0.0",
		}); err != nil {
			log.Warn("failed to configure X-Ray", sl.Err(err))
			// X-Ray設定失敗時はデフォルトの設定を使用
			if configErr := xray.Configure(xray.Config{}); configErr != nil {
				fatal(log, "failed to configure default X-Ray settings", configErr)
			}
		}
		os.Setenv("AWS_XRAY_CONTEXT_MISSING", "LOG_ERROR")
	}

	// 通知バッチサービスを作成
	service, err := batch.NewNotificationBatchService(cfg, log)
	if err != nil {
		fatal(log, "failed to create notification batch service", err)
	}
	service.SetLimit(*limit)

	// コンテキストを作成
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// X-Rayセグメントの作成
	if cfg.EnableTracing {
		var seg *xray.Segment
		ctx, seg = xray.BeginSegment(ctx, projectName)
		defer seg.Close(nil)

		utils.AddMetadata(ctx, log, "timeout", timeout.String())
		utils.AddMetadata(ctx, log, "limit", *limit)
	}

	// シグナルハンドリング
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// バッチ処理の実行
	errChan := make(chan error, 1)
	go func() {
		errChan <- utils.RunWithTimeout(ctx, *timeout, service.Run)
	}()

	// シグナルを待機
	select {
	case sig := <-sigChan:
		log.Warn("received signal", slog.String("signal", sig.String()))
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Error("batch process failed", sl.Err(utils.WithStack(err)))
			os.Exit(1)
		}
		log.Info("batch process completed successfully")
	}
}

func setupLogger(env string) *slog.Logger {
	if config.IsLocalEnv(env) {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, sl.Err(utils.WithStack(err)))
	os.Exit(1)
}
