package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"im-delivery/internal/model"
	"im-delivery/pkg/mq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

// fakeSender 可编程的推送桩：按地址返回成败，并记录每次推送
type fakeSender struct {
	results map[string]bool // 地址 -> 是否成功，缺省失败
	sent    []fakeSent
}

type fakeSent struct {
	addresses []string
	payload   interface{}
}

func (f *fakeSender) SendByList(ctx context.Context, addresses []string, payload interface{}) bool {
	f.sent = append(f.sent, fakeSent{addresses: addresses, payload: payload})
	delivered := false
	for _, address := range addresses {
		if f.results[address] {
			delivered = true
		}
	}
	return delivered
}

// fakeMessageLog 内存版消息日志
type fakeMessageLog struct {
	rows   []*model.Message
	nextID uint

	createErr error
	deleteErr error
}

func newFakeMessageLog() *fakeMessageLog {
	return &fakeMessageLog{nextID: 1}
}

func (f *fakeMessageLog) Create(message *model.Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	message.ID = f.nextID
	f.nextID++
	f.rows = append(f.rows, message)
	return nil
}

func (f *fakeMessageLog) GetPendingByReceiver(receiverID uint) ([]*model.Message, error) {
	var pending []*model.Message
	for _, row := range f.rows {
		if row.ReceiverID == receiverID {
			pending = append(pending, row)
		}
	}
	return pending, nil
}

func (f *fakeMessageLog) Delete(messageID uint) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, row := range f.rows {
		if row.ID == messageID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func newMessageTask(addresses ...string) *mq.MessageTask {
	return &mq.MessageTask{
		AddressList: addresses,
		Message: mq.MessageBody{
			SenderID:       1,
			ReceiverID:     2,
			SenderUsername: "alice",
			Content:        "hello",
			SendDate:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

// --- tests ---

func TestDispatcherDeliveredNotPersisted(t *testing.T) {
	sender := &fakeSender{results: map[string]bool{"http://a": true}}
	log := newFakeMessageLog()
	dispatcher := NewDispatcher(sender, log)

	err := dispatcher.Handle(context.Background(), newMessageTask("http://a", "http://b"))
	require.NoError(t, err)

	// 有一个地址成功即视为已投递，绝不落库
	assert.Empty(t, log.rows)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"http://a", "http://b"}, sender.sent[0].addresses)
}

func TestDispatcherAllFailedPersistedOnce(t *testing.T) {
	sender := &fakeSender{results: map[string]bool{}}
	log := newFakeMessageLog()
	dispatcher := NewDispatcher(sender, log)

	err := dispatcher.Handle(context.Background(), newMessageTask("http://a", "http://b"))
	require.NoError(t, err)

	// 全部失败：恰好落库一行，可以ack
	require.Len(t, log.rows, 1)
	row := log.rows[0]
	assert.Equal(t, uint(1), row.SenderID)
	assert.Equal(t, uint(2), row.ReceiverID)
	assert.Equal(t, "alice", row.SenderUsername)
	assert.Equal(t, "hello", row.Content)
}

func TestDispatcherEmptyAddressListPersisted(t *testing.T) {
	sender := &fakeSender{}
	log := newFakeMessageLog()
	dispatcher := NewDispatcher(sender, log)

	// 接收者没有任何已知地址：直接落库
	err := dispatcher.Handle(context.Background(), newMessageTask())
	require.NoError(t, err)
	assert.Len(t, log.rows, 1)
}

func TestDispatcherPersistFailureReturnsError(t *testing.T) {
	sender := &fakeSender{}
	log := newFakeMessageLog()
	log.createErr = errors.New("deadlock found")
	dispatcher := NewDispatcher(sender, log)

	// 落库失败必须报错，由broker重投，消息不会被静默丢弃
	err := dispatcher.Handle(context.Background(), newMessageTask("http://a"))
	require.Error(t, err)
}
