package storage

import "github.com/google/wire"

// ProviderSet Storage 基础设施层 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideStore,      // 打开数据库并迁移
	ProvideRepository, // 待办仓储
)
