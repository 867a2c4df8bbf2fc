package todo

import (
	"strconv"
	"strings"
	"time"
)

// Todo 待办事项实体
type Todo struct {
	ID        int64     // 存储层分配的自增主键，创建后不可变
	Title     string    // 标题（已去除首尾空白，非空）
	Completed bool      // 是否完成
	CreatedAt time.Time // 创建时间，不可变
	UpdatedAt time.Time // 最近一次修改时间
}

// Patch 部分更新内容，nil 字段表示保持原值
type Patch struct {
	Title     *string
	Completed *bool
}

// IsEmpty 是否不包含任何字段
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Completed == nil
}

// Stats 待办统计
type Stats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Remaining int64 `json:"remaining"`
}

// NormalizeTitle 去除首尾空白并校验非空
// 返回的错误由调用方决定具体文案（创建与更新不同）
func NormalizeTitle(raw string) (string, bool) {
	title := strings.TrimSpace(raw)
	return title, title != ""
}

// ParseID 解析路径中的待办 ID，仅接受十进制正整数
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// Timestamp 返回毫秒精度的 UTC 时间，保证写入与读出一致
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
