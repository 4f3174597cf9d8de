package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"im-delivery/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMessageService() (*MessageService, *fakeDurable, *fakeQueue) {
	store, _, durable := newTestStore()
	queue := &fakeQueue{}
	return NewMessageService(store, queue), durable, queue
}

func TestEnqueueMessageAttachesAddresses(t *testing.T) {
	svc, durable, queue := newTestMessageService()
	ctx := context.Background()

	require.NoError(t, durable.Create(&model.User{Username: "alice"}))
	require.NoError(t, durable.Create(&model.User{Username: "bob"}))
	require.NoError(t, durable.Store(2, "http://b:9000/incoming"))

	sendDate := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	err := svc.EnqueueMessage(ctx, 1, 2, "alice", "hello", sendDate)
	require.NoError(t, err)

	// 地址列表在入列时解析并附带
	require.Len(t, queue.messages, 1)
	task := queue.messages[0]
	assert.Equal(t, []string{"http://b:9000/incoming"}, task.AddressList)
	assert.Equal(t, uint(1), task.Message.SenderID)
	assert.Equal(t, uint(2), task.Message.ReceiverID)
	assert.Equal(t, "alice", task.Message.SenderUsername)
	assert.Equal(t, "hello", task.Message.Content)
	assert.Equal(t, sendDate, task.Message.SendDate)
}

func TestEnqueueMessageReceiverWithoutAddresses(t *testing.T) {
	svc, durable, queue := newTestMessageService()

	require.NoError(t, durable.Create(&model.User{Username: "alice"}))
	require.NoError(t, durable.Create(&model.User{Username: "bob"}))

	// 接收者离线也能入列：消费端会落库
	err := svc.EnqueueMessage(context.Background(), 1, 2, "alice", "hello", time.Now())
	require.NoError(t, err)
	require.Len(t, queue.messages, 1)
	assert.Empty(t, queue.messages[0].AddressList)
}

func TestEnqueueMessageUnknownReceiver(t *testing.T) {
	svc, durable, queue := newTestMessageService()

	require.NoError(t, durable.Create(&model.User{Username: "alice"}))

	err := svc.EnqueueMessage(context.Background(), 1, 99, "alice", "hello", time.Now())
	assert.EqualError(t, err, "receiver not found")
	assert.Empty(t, queue.messages)
}

func TestEnqueueMessageUnknownSender(t *testing.T) {
	svc, durable, queue := newTestMessageService()

	require.NoError(t, durable.Create(&model.User{Username: "bob"}))

	err := svc.EnqueueMessage(context.Background(), 99, 1, "ghost", "hello", time.Now())
	assert.EqualError(t, err, "sender not found")
	assert.Empty(t, queue.messages)
}

func TestEnqueueMessagePublishFailure(t *testing.T) {
	svc, durable, queue := newTestMessageService()
	queue.err = errors.New("channel closed")

	require.NoError(t, durable.Create(&model.User{Username: "alice"}))
	require.NoError(t, durable.Create(&model.User{Username: "bob"}))

	err := svc.EnqueueMessage(context.Background(), 1, 2, "alice", "hello", time.Now())
	assert.Error(t, err)
}
