package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/joho/godotenv"

	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/lib/logger/sl"
	"github.com/uma-arai/sbcntr-hotel/internal/service/batch"
)

const (
	projectName = "sbcntr-hotel-reservation"
)

func main() {
	// コマンドライン引数のパース
	timeout := flag.Duration("timeout", 5*time.Minute, "バッチ処理のタイムアウト時間")
	inputPath := flag.String("input", "", "予約バッチの入力JSONファイル（未指定の場合は環境変数 BATCH_INPUT）")
	flag.Parse()

	// .env があれば読み込む
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", sl.Err(err))
	}

	env := os.Getenv("ENV")
	log := setupLogger(env)
	slog.SetDefault(log)

	taskToken, err := resolveTaskToken(env, flag.Args())
	if err != nil {
		fatal(log, "task token is required", err)
	}

	// 設定の読み込み
	cfg, err := config.LoadConfig(taskToken)
	if err != nil {
		fatal(log, "failed to load config", err)
	}

	input, err := loadInput(*inputPath)
	if err != nil {
		fatal(log, "failed to load batch input", err)
	}

	// X-Ray設定
	if cfg.EnableTracing {
		configureXRay(log)
	}

	// Step Functionsクライアントの初期化
	var sfnClient batch.SFNClient
	if !cfg.IsLocal() {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			fatal(log, "failed to load AWS config", err)
		}
		sfnClient = sfn.NewFromConfig(awsCfg)
	}

	// コンテキストの作成
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// X-Rayセグメントの作成
	if cfg.EnableTracing {
		var seg *xray.Segment
		ctx, seg = xray.BeginSegment(ctx, projectName)
		defer seg.Close(nil)

		utils.AddMetadata(ctx, log, "timeout", timeout.String())
		utils.AddMetadata(ctx, log, "storage_backend", cfg.Storage.Backend)
	}

	// サービスの初期化
	service, err := batch.NewReservationBatchService(ctx, cfg, sfnClient, log)
	if err != nil {
		fatal(log, "failed to create service", err)
	}
	defer service.Close()

	service.SetArgs(input)

	// シグナルハンドリングの設定
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// バッチ処理の実行
	errChan := make(chan error, 1)
	go func() {
		errChan <- utils.RunWithTimeout(ctx, *timeout, service.Run)
	}()

	// シグナルまたはエラーの待機
	select {
	case sig := <-sigChan:
		log.Warn("received signal", slog.String("signal", sig.String()))
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Error("batch process failed", sl.Err(utils.WithStack(err)))

			// ローカル環境以外の場合のみStep Functionsのエラー通知を行う
			if notifyErr := service.SendTaskFailure(context.WithoutCancel(ctx), err); notifyErr != nil {
				log.Error("failed to send task failure", sl.Err(notifyErr))
			}

			service.Close()
			os.Exit(1)
		}
		log.Info("batch process completed successfully")
	}
}

// loadInput は -input のファイル、または環境変数 BATCH_INPUT から入力を読み込みます
func loadInput(path string) (batch.Input, error) {
	var data []byte
	switch {
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return batch.Input{}, err
		}
		data = b
	case os.Getenv("BATCH_INPUT") != "":
		data = []byte(os.Getenv("BATCH_INPUT"))
	default:
		slog.Warn("no batch input given, nothing to process")
		return batch.Input{}, nil
	}
	return batch.ParseInput(data)
}

// resolveTaskToken は最後の引数として渡されたタスクトークンを返します
// ローカル実行（ENV 未設定を含む）ではタスクトークンを使いません
func resolveTaskToken(env string, args []string) (string, error) {
	if config.IsLocalEnv(env) {
		return "DUMMY_TASK_TOKEN", nil
	}
	if len(args) == 0 || args[len(args)-1] == "" {
		return "", fmt.Errorf("task token must be the last argument when ENV=%s", env)
	}
	return args[len(args)-1], nil
}

func setupLogger(env string) *slog.Logger {
	if config.IsLocalEnv(env) {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func configureXRay(log *slog.Logger) {
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

func fatal(log *slog.Logger, msg string, err error) {
	if err == nil {
		err = errors.New(msg)
	}
	log.Error(msg, sl.Err(utils.WithStack(err)))
	os.Exit(1)
}
