// Package viewmodel 客户端待办列表的内存镜像
package viewmodel

import "github.com/tasklet/backend/internal/client/apiclient"

// Prepend 将新建的待办放到最前，并移除同 id 的旧条目
func Prepend(list []apiclient.Todo, created apiclient.Todo) []apiclient.Todo {
	result := make([]apiclient.Todo, 0, len(list)+1)
	result = append(result, created)
	for _, item := range list {
		if item.ID != created.ID {
			result = append(result, item)
		}
	}
	return result
}

// Replace 原位替换同 id 的条目，id 不存在时返回内容相同的新切片
func Replace(list []apiclient.Todo, updated apiclient.Todo) []apiclient.Todo {
	result := make([]apiclient.Todo, len(list))
	for i, item := range list {
		if item.ID == updated.ID {
			result[i] = updated
			continue
		}
		result[i] = item
	}
	return result
}

// ReplaceIfNewer 与 Replace 相同，但 updated 早于本地同 id 条目时保持原样
// 推送帧可能晚于本标签页已合并的 HTTP 响应到达
func ReplaceIfNewer(list []apiclient.Todo, updated apiclient.Todo) []apiclient.Todo {
	for _, item := range list {
		if item.ID == updated.ID && updated.UpdatedAt.Before(item.UpdatedAt) {
			return append([]apiclient.Todo(nil), list...)
		}
	}
	return Replace(list, updated)
}

// Remove 移除指定 id 的条目
func Remove(list []apiclient.Todo, id int64) []apiclient.Todo {
	result := make([]apiclient.Todo, 0, len(list))
	for _, item := range list {
		if item.ID != id {
			result = append(result, item)
		}
	}
	return result
}

// Remaining 未完成数量
func Remaining(list []apiclient.Todo) int {
	n := 0
	for _, item := range list {
		if !item.Completed {
			n++
		}
	}
	return n
}
