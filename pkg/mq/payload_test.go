package mq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessageTaskWireFormat(t *testing.T) {
	// 入列方写出的线上格式
	raw := []byte(`{
		"address_list": ["http://a:9000/incoming", "http://b:9000/incoming"],
		"msg_json": {
			"sender_id": 1,
			"receiver_id": 2,
			"sender_username": "alice",
			"message": "hello",
			"send_date": "2026-08-01T12:00:00Z"
		}
	}`)

	task, err := DecodeMessageTask(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a:9000/incoming", "http://b:9000/incoming"}, task.AddressList)
	assert.Equal(t, uint(1), task.Message.SenderID)
	assert.Equal(t, uint(2), task.Message.ReceiverID)
	assert.Equal(t, "alice", task.Message.SenderUsername)
	assert.Equal(t, "hello", task.Message.Content)
	assert.Equal(t, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), task.Message.SendDate)
}

func TestMessageTaskRoundTrip(t *testing.T) {
	task := &MessageTask{
		AddressList: []string{"http://a"},
		Message: MessageBody{
			SenderID:       3,
			ReceiverID:     4,
			SenderUsername: "bob",
			Content:        "你好",
			SendDate:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	data, err := EncodeMessageTask(task)
	require.NoError(t, err)
	decoded, err := DecodeMessageTask(data)
	require.NoError(t, err)
	assert.Equal(t, task, decoded)
}

func TestDecodeMessageTaskInvalid(t *testing.T) {
	_, err := DecodeMessageTask([]byte("not json"))
	assert.Error(t, err)
}

func TestDecodeLoginTask(t *testing.T) {
	task, err := DecodeLoginTask([]byte(`{"user_id": 5, "user_address": "http://c:9000/incoming"}`))
	require.NoError(t, err)
	assert.Equal(t, uint(5), task.UserID)
	assert.Equal(t, "http://c:9000/incoming", task.Address)
}

func TestLoginTaskRoundTrip(t *testing.T) {
	task := &LoginTask{UserID: 6, Address: "http://d"}

	data, err := EncodeLoginTask(task)
	require.NoError(t, err)
	decoded, err := DecodeLoginTask(data)
	require.NoError(t, err)
	assert.Equal(t, task, decoded)
}
