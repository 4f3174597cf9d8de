package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"im-delivery/config"
	"im-delivery/pkg/logger"

	"go.uber.org/zap"
)

// Sender 无状态网络推送原语
// 向一个地址推送一条消息，返回是否成功
// 连接失败、超时和非200响应都视为失败，只记录日志，不向上抛错

type Sender struct {
	client  *http.Client
	localIP string
}

// NewSender 创建Sender实例
func NewSender(cfg config.SenderConfig) *Sender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Sender{
		client:  &http.Client{Timeout: timeout},
		localIP: resolveLocalIP(),
	}
}

// resolveLocalIP 解析本机IP，用于回环地址改写
func resolveLocalIP() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}
	addrs, err := net.LookupHost(hostname)
	if err != nil || len(addrs) == 0 {
		return ""
	}
	return addrs[0]
}

// NormalizeURL 回环地址归一化
// 指向本机IP或127.0.0.1的地址改写为localhost，支持同机部署与本机测试
func (s *Sender) NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	host := parsed.Hostname()
	if host != "" && (host == s.localIP || host == "127.0.0.1") {
		return strings.Replace(rawURL, host, "localhost", 1)
	}
	return rawURL
}

// Send 向一个地址推送一条消息
// 成功的唯一标准是对端返回HTTP 200
func (s *Sender) Send(ctx context.Context, address string, payload interface{}) bool {
	address = s.NormalizeURL(address)

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("序列化推送载荷失败", zap.Error(err))
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, address, bytes.NewReader(body))
	if err != nil {
		logger.Error("构建推送请求失败", zap.String("address", address), zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// 连接失败与超时都走这里：记录后按失败处理
		logger.Warn("推送失败", zap.String("address", address), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("推送被拒绝",
			zap.String("address", address),
			zap.Int("status", resp.StatusCode),
		)
		return false
	}

	logger.Debug("推送成功", zap.String("address", address))
	return true
}

// SendByList 向地址列表做扇出推送
// 不在首个成功后停止：消息要推到接收者的每个已知设备
// 只要有一个地址成功即返回true
func (s *Sender) SendByList(ctx context.Context, addresses []string, payload interface{}) bool {
	delivered := false
	for _, address := range addresses {
		if s.Send(ctx, address, payload) {
			delivered = true
		}
	}

	if !delivered {
		logger.Info("所有地址推送失败", zap.Int("address_count", len(addresses)))
	}
	return delivered
}
