package sender

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"im-delivery/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender() *Sender {
	return NewSender(config.SenderConfig{Timeout: 2 * time.Second})
}

func TestSendSuccess(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ok := newTestSender().Send(context.Background(), server.URL, map[string]string{"message": "hello"})
	assert.True(t, ok)
	assert.Equal(t, "hello", got["message"])
}

func TestSendNon200IsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ok := newTestSender().Send(context.Background(), server.URL, map[string]string{"message": "hello"})
	assert.False(t, ok)
}

func TestSendConnectionRefusedIsFailure(t *testing.T) {
	// 已关闭的端口：连接失败按推送失败处理，不panic不抛错
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	address := server.URL
	server.Close()

	ok := newTestSender().Send(context.Background(), address, map[string]string{"message": "hello"})
	assert.False(t, ok)
}

func TestSendByListFansOutToAll(t *testing.T) {
	var first, second atomic.Int32
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer okServer.Close()
	failServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		second.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failServer.Close()

	// 首个地址成功后仍继续推送剩余地址
	ok := newTestSender().SendByList(context.Background(),
		[]string{okServer.URL, failServer.URL}, map[string]string{"message": "hello"})
	assert.True(t, ok)
	assert.Equal(t, int32(1), first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestSendByListAllFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	ok := newTestSender().SendByList(context.Background(),
		[]string{server.URL, server.URL}, map[string]string{"message": "hello"})
	assert.False(t, ok)
}

func TestSendByListEmptyList(t *testing.T) {
	ok := newTestSender().SendByList(context.Background(), nil, map[string]string{"message": "hello"})
	assert.False(t, ok)
}

func TestNormalizeURL(t *testing.T) {
	s := newTestSender()

	assert.Equal(t, "http://localhost:9000/incoming",
		s.NormalizeURL("http://127.0.0.1:9000/incoming"))
	// 非回环主机名保持原样
	assert.Equal(t, "http://peer.example.com:9000/incoming",
		s.NormalizeURL("http://peer.example.com:9000/incoming"))
	// 解析不了的URL原样返回
	assert.Equal(t, "://bad", s.NormalizeURL("://bad"))
}
