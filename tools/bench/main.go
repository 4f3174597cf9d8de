package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// 接收路径压测工具：注册两个用户，登录后并发调用消息接收接口，
// 统计入列吞吐与延迟分布（投递由Sender进程异步完成，不在统计内）

var (
	baseURL     = flag.String("url", "http://localhost:8080", "API base URL")
	concurrency = flag.Int("c", 10, "concurrent senders")
	total       = flag.Int("n", 1000, "total messages")
)

type apiResponse struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

func post(path, token string, body interface{}) (*apiResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, *baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Code != 0 {
		return nil, fmt.Errorf("api error: code=%d", out.Code)
	}
	return &out, nil
}

func registerAndLogin(username, phone string) (uint, string) {
	_, err := post("/api/v1/users/register", "", map[string]string{
		"username":     username,
		"phone_number": phone,
		"password":     "bench-password",
	})
	if err != nil {
		log.Printf("register %s: %v (possibly already registered)", username, err)
	}

	resp, err := post("/api/v1/auth/login", "", map[string]string{
		"username":     username,
		"password":     "bench-password",
		"user_address": "http://localhost:9999/receive",
		"public_key":   "bench-key",
	})
	if err != nil {
		log.Fatalf("login %s failed: %v", username, err)
	}

	var login struct {
		UserID      uint   `json:"user_id"`
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(resp.Data, &login); err != nil {
		log.Fatalf("decode login response: %v", err)
	}
	return login.UserID, login.AccessToken
}

func main() {
	flag.Parse()

	senderID, token := registerAndLogin("bench_sender", "10000000001")
	receiverID, _ := registerAndLogin("bench_receiver", "10000000002")

	log.Printf("sender=%d receiver=%d, sending %d messages with %d workers",
		senderID, receiverID, *total, *concurrency)

	var sent, failed int64
	var totalLatency int64 // 微秒

	start := time.Now()
	var wg sync.WaitGroup
	perWorker := *total / *concurrency

	for w := 0; w < *concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				begin := time.Now()
				_, err := post("/api/v1/messages/send", token, map[string]interface{}{
					"sender_id":       senderID,
					"receiver_id":     receiverID,
					"sender_username": "bench_sender",
					"message":         fmt.Sprintf("bench message %d-%d", worker, i),
					"send_date":       time.Now().Format(time.RFC3339),
				})
				atomic.AddInt64(&totalLatency, time.Since(begin).Microseconds())
				if err != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}
				atomic.AddInt64(&sent, 1)
			}
		}(w)
	}
	wg.Wait()

	elapsed := time.Since(start)
	fmt.Printf("\nsent=%d failed=%d elapsed=%s\n", sent, failed, elapsed)
	if sent > 0 {
		fmt.Printf("throughput=%.1f msg/s avg latency=%.2f ms\n",
			float64(sent)/elapsed.Seconds(),
			float64(totalLatency)/float64(sent)/1000,
		)
	}
}
