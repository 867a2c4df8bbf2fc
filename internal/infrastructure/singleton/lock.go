// Package singleton 保证同一地址上只运行一个 tasklet 实例
package singleton

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
)

// HealthCheckTimeout 健康检查超时时间
const HealthCheckTimeout = 2 * time.Second

// ErrAlreadyRunning 地址上已有健康的实例在运行，调用者应退出
var ErrAlreadyRunning = errors.New("tasklet is already running on this address")

// Acquire 监听 addr 并返回 listener
// 地址被占用时通过 /health 判断占用者是否为健康实例：
// 是则返回 ErrAlreadyRunning，否则返回地址占用错误
func Acquire(ctx context.Context, addr string) (net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err == nil {
		return listener, nil
	}

	if !isAddrInUse(err) {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if isInstanceRunning(ctx, addr) {
		return nil, ErrAlreadyRunning
	}
	return nil, fmt.Errorf("address %s is in use by another process: %w", addr, err)
}

// isAddrInUse 检查错误是否是地址已在使用
func isAddrInUse(err error) bool {
	if err == nil {
		return false
	}
	// Windows: WSAEADDRINUSE (10048)
	return errors.Is(err, syscall.EADDRINUSE) || errors.Is(err, syscall.Errno(10048))
}

// healthURL 由监听地址推导健康检查地址，空主机按本机处理
func healthURL(addr string) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", err
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/health", nil
}

// isInstanceRunning 检查地址上是否为健康的 tasklet 实例
func isInstanceRunning(ctx context.Context, addr string) bool {
	url, err := healthURL(addr)
	if err != nil {
		return false
	}

	var health struct {
		Status string `json:"status"`
	}
	resp, err := resty.New().
		SetTimeout(HealthCheckTimeout).
		R().
		SetContext(ctx).
		SetResult(&health).
		Get(url)
	if err != nil {
		// 请求失败，说明实例不在运行或不可访问
		return false
	}
	return resp.IsSuccess() && health.Status == "ok"
}
