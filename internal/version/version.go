// Package version 构建版本信息，通过 -ldflags 注入
package version

var (
	// Version 版本号
	Version = "dev"
	// Commit 提交哈希
	Commit = "none"
	// BuildTime 构建时间
	BuildTime = "unknown"
)

// String 返回完整版本描述
func String() string {
	return Version + " (" + Commit + ", " + BuildTime + ")"
}
