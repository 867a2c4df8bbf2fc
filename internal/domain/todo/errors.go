package todo

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation 输入校验失败（客户端错误，不会修改数据）
	ErrValidation = errors.New("validation failed")
	// ErrInvalidID 待办 ID 格式错误
	ErrInvalidID = errors.New("invalid todo id")
	// ErrNotFound 待办不存在
	ErrNotFound = errors.New("todo not found")
	// ErrStorage 存储层错误（服务端错误）
	ErrStorage = errors.New("storage failure")
)

// 标题校验文案
const (
	MsgTitleRequired = "Title is required"
	MsgTitleEmpty    = "Title cannot be empty"
)

// ValidationError 字段校验错误
type ValidationError struct {
	// Field 出错字段
	Field string
	// Message 面向用户的简短描述
	Message string
}

// Error 返回错误描述
func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError 创建字段校验错误
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// StorageError 存储操作失败
type StorageError struct {
	// Op 失败的操作：list, get, create, update, delete, clear, stats
	Op  string
	Err error
}

// Error 返回错误描述
func (e *StorageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("todo storage %s failed: %v", e.Op, e.Err)
}

// Unwrap 返回底层错误
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrStorage) 成立
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
