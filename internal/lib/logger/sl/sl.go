package sl

import "log/slog"

func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Discard はテスト用に何も出力しないロガーを返します
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
