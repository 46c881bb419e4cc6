package apperror

import (
	"errors"
	"fmt"
)

// Kind はエラーの分類を表します
type Kind string

const (
	// KindValidation は入力値が構造的に不正であることを表します
	KindValidation Kind = "VALIDATION_ERROR"
	// KindBusinessRule は業務ルール違反を表します
	KindBusinessRule Kind = "BUSINESS_RULE_ERROR"
	// KindNotFound は対象のエンティティが存在しないことを表します
	KindNotFound Kind = "NOT_FOUND"
	// KindDuplicateID はIDの重複を表します
	KindDuplicateID Kind = "DUPLICATE_ID"
	// KindConflict は状態の競合を表します（キャンセル済み予約の再キャンセルなど）
	KindConflict Kind = "CONFLICT"
	// KindPersistence は永続化に失敗したことを表します
	KindPersistence Kind = "PERSISTENCE_ERROR"
	// KindCorruptData はレコード単位のデータ破損を表します
	KindCorruptData Kind = "CORRUPT_DATA"
)

// 種別ごとのセンチネル。errors.Is で判定できます
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrBusinessRule = &Error{Kind: KindBusinessRule}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrDuplicateID  = &Error{Kind: KindDuplicateID}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrPersistence  = &Error{Kind: KindPersistence}
	ErrCorruptData  = &Error{Kind: KindCorruptData}
)

// parents は種別の親子関係です
var parents = map[Kind]Kind{
	KindNotFound:    KindBusinessRule,
	KindDuplicateID: KindBusinessRule,
	KindConflict:    KindBusinessRule,
	KindCorruptData: KindPersistence,
}

// Error はアプリケーション共通のエラーです
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is は同じ種別、または親の種別のセンチネルと一致します
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" || t.Err != nil {
		return false
	}
	for k := e.Kind; k != ""; k = parents[k] {
		if k == t.Kind {
			return true
		}
	}
	return false
}

// New は新しいErrorを作成します
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap は原因となるエラーを保持したErrorを作成します
func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func Validation(op, format string, args ...any) *Error {
	return New(KindValidation, op, fmt.Sprintf(format, args...))
}

func BusinessRule(op, format string, args ...any) *Error {
	return New(KindBusinessRule, op, fmt.Sprintf(format, args...))
}

func NotFound(op, format string, args ...any) *Error {
	return New(KindNotFound, op, fmt.Sprintf(format, args...))
}

func DuplicateID(op, format string, args ...any) *Error {
	return New(KindDuplicateID, op, fmt.Sprintf(format, args...))
}

func Conflict(op, format string, args ...any) *Error {
	return New(KindConflict, op, fmt.Sprintf(format, args...))
}

// KindOf はエラーチェーン上で最初に見つかったErrorの種別を返します
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}
