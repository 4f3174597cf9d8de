package service

import (
	"context"
	"errors"
	"testing"

	"im-delivery/internal/model"
	rcache "im-delivery/pkg/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

// fakeCache 内存版RAM层，带调用计数
type fakeCache struct {
	users     map[uint]*rcache.CachedUser
	byName    map[string]*rcache.CachedUser
	addresses map[uint][]string
	tokens    map[uint]string
	pubkeys   map[uint]string

	failing bool // 模拟缓存瞬时故障

	getUserCalls int
	setUserCalls int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		users:     make(map[uint]*rcache.CachedUser),
		byName:    make(map[string]*rcache.CachedUser),
		addresses: make(map[uint][]string),
		tokens:    make(map[uint]string),
		pubkeys:   make(map[uint]string),
	}
}

var errCacheDown = errors.New("connection refused")

func (f *fakeCache) SetUser(ctx context.Context, id uint, username string) error {
	if f.failing {
		return errCacheDown
	}
	f.setUserCalls++
	cached := &rcache.CachedUser{ID: id, Username: username}
	f.users[id] = cached
	f.byName[username] = cached
	return nil
}

func (f *fakeCache) GetUser(ctx context.Context, id uint) (*rcache.CachedUser, error) {
	if f.failing {
		return nil, errCacheDown
	}
	f.getUserCalls++
	if cached, ok := f.users[id]; ok {
		return cached, nil
	}
	return nil, model.ErrNotFound
}

func (f *fakeCache) GetUserByUsername(ctx context.Context, username string) (*rcache.CachedUser, error) {
	if f.failing {
		return nil, errCacheDown
	}
	if cached, ok := f.byName[username]; ok {
		return cached, nil
	}
	return nil, model.ErrNotFound
}

func (f *fakeCache) DeleteUser(ctx context.Context, id uint, username string) error {
	delete(f.users, id)
	delete(f.byName, username)
	return nil
}

func (f *fakeCache) AddAddress(ctx context.Context, userID uint, address string) error {
	if f.failing {
		return errCacheDown
	}
	for _, existing := range f.addresses[userID] {
		if existing == address {
			return nil
		}
	}
	f.addresses[userID] = append(f.addresses[userID], address)
	return nil
}

func (f *fakeCache) SetAddresses(ctx context.Context, userID uint, addresses []string) error {
	if f.failing {
		return errCacheDown
	}
	f.addresses[userID] = append([]string(nil), addresses...)
	return nil
}

func (f *fakeCache) GetAddresses(ctx context.Context, userID uint) ([]string, error) {
	if f.failing {
		return nil, errCacheDown
	}
	if addrs, ok := f.addresses[userID]; ok && len(addrs) > 0 {
		return addrs, nil
	}
	return nil, model.ErrNotFound
}

func (f *fakeCache) DeleteAddresses(ctx context.Context, userID uint) error {
	delete(f.addresses, userID)
	return nil
}

func (f *fakeCache) SetToken(ctx context.Context, userID uint, token string) error {
	if f.failing {
		return errCacheDown
	}
	f.tokens[userID] = token
	return nil
}

func (f *fakeCache) GetToken(ctx context.Context, userID uint) (string, error) {
	if f.failing {
		return "", errCacheDown
	}
	if token, ok := f.tokens[userID]; ok {
		return token, nil
	}
	return "", model.ErrNotFound
}

func (f *fakeCache) DeleteToken(ctx context.Context, userID uint) error {
	delete(f.tokens, userID)
	return nil
}

func (f *fakeCache) SetPublicKey(ctx context.Context, userID uint, publicKey string) error {
	if f.failing {
		return errCacheDown
	}
	f.pubkeys[userID] = publicKey
	return nil
}

func (f *fakeCache) GetPublicKey(ctx context.Context, userID uint) (string, error) {
	if f.failing {
		return "", errCacheDown
	}
	if key, ok := f.pubkeys[userID]; ok {
		return key, nil
	}
	return "", model.ErrNotFound
}

func (f *fakeCache) DeletePublicKey(ctx context.Context, userID uint) error {
	delete(f.pubkeys, userID)
	return nil
}

// fakeDurable 内存版持久层，同时实现用户、地址、凭证三个契约
// 删除用户时级联清理，模拟仓储层的单事务级联删除
type fakeDurable struct {
	users     map[uint]*model.User
	addresses map[uint][]string
	tokens    map[uint]string
	pubkeys   map[uint]string
	nextID    uint

	failingErr error // 非nil时所有操作返回该错误

	getByIDCalls  int
	getTokenCalls int
	saveTokCalls  int
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{
		users:     make(map[uint]*model.User),
		addresses: make(map[uint][]string),
		tokens:    make(map[uint]string),
		pubkeys:   make(map[uint]string),
		nextID:    1,
	}
}

func (f *fakeDurable) Create(user *model.User) error {
	if f.failingErr != nil {
		return f.failingErr
	}
	user.ID = f.nextID
	f.nextID++
	f.users[user.ID] = user
	return nil
}

func (f *fakeDurable) GetByID(id uint) (*model.User, error) {
	f.getByIDCalls++
	if f.failingErr != nil {
		return nil, f.failingErr
	}
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, model.ErrNotFound
}

func (f *fakeDurable) GetByUsername(username string) (*model.User, error) {
	if f.failingErr != nil {
		return nil, f.failingErr
	}
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakeDurable) Delete(userID uint) error {
	if f.failingErr != nil {
		return f.failingErr
	}
	delete(f.users, userID)
	delete(f.addresses, userID)
	delete(f.tokens, userID)
	delete(f.pubkeys, userID)
	return nil
}

func (f *fakeDurable) Store(userID uint, address string) error {
	if f.failingErr != nil {
		return f.failingErr
	}
	for _, existing := range f.addresses[userID] {
		if existing == address {
			return nil
		}
	}
	f.addresses[userID] = append(f.addresses[userID], address)
	return nil
}

func (f *fakeDurable) GetByUser(userID uint) ([]string, error) {
	if f.failingErr != nil {
		return nil, f.failingErr
	}
	return append([]string(nil), f.addresses[userID]...), nil
}

func (f *fakeDurable) DeleteByUser(userID uint) error {
	delete(f.addresses, userID)
	return nil
}

func (f *fakeDurable) SaveToken(userID uint, token string) error {
	f.saveTokCalls++
	if f.failingErr != nil {
		return f.failingErr
	}
	f.tokens[userID] = token
	return nil
}

func (f *fakeDurable) GetToken(userID uint) (string, error) {
	f.getTokenCalls++
	if f.failingErr != nil {
		return "", f.failingErr
	}
	if token, ok := f.tokens[userID]; ok {
		return token, nil
	}
	return "", model.ErrNotFound
}

func (f *fakeDurable) DeleteToken(userID uint) error {
	if f.failingErr != nil {
		return f.failingErr
	}
	delete(f.tokens, userID)
	return nil
}

func (f *fakeDurable) SavePublicKey(userID uint, publicKey string) error {
	if f.failingErr != nil {
		return f.failingErr
	}
	f.pubkeys[userID] = publicKey
	return nil
}

func (f *fakeDurable) GetPublicKey(userID uint) (string, error) {
	if f.failingErr != nil {
		return "", f.failingErr
	}
	if key, ok := f.pubkeys[userID]; ok {
		return key, nil
	}
	return "", model.ErrNotFound
}

func (f *fakeDurable) DeletePublicKey(userID uint) error {
	delete(f.pubkeys, userID)
	return nil
}

func newTestStore() (*StoreService, *fakeCache, *fakeDurable) {
	cache := newFakeCache()
	durable := newFakeDurable()
	return NewStoreService(cache, durable, durable, durable), cache, durable
}

// --- tests ---

func TestGetUserReadThrough(t *testing.T) {
	store, cache, durable := newTestStore()
	ctx := context.Background()

	require.NoError(t, durable.Create(&model.User{Username: "alice"}))

	// 首次读取：缓存未命中，回源持久层并回填
	user, err := store.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, 1, durable.getByIDCalls)
	assert.Equal(t, 1, cache.setUserCalls)

	// 再次读取：缓存命中，持久层不再被查询
	user, err = store.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, 1, durable.getByIDCalls)
}

func TestGetUserNotFound(t *testing.T) {
	store, _, _ := newTestStore()

	_, err := store.GetUser(context.Background(), 42)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGetUserCacheFailureFallsBackToDurable(t *testing.T) {
	store, cache, durable := newTestStore()
	ctx := context.Background()

	require.NoError(t, durable.Create(&model.User{Username: "bob"}))
	cache.failing = true

	// 缓存瞬时故障不能折算成"用户不存在"
	user, err := store.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
}

func TestGetUserDurableFailureSurfaced(t *testing.T) {
	store, _, durable := newTestStore()
	durable.failingErr = errors.New("dial tcp: connection refused")

	_, err := store.GetUser(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)
}

func TestGetAddressesEmpty(t *testing.T) {
	store, _, _ := newTestStore()

	// 无地址的用户：空切片，不是nil也不是错误
	addresses, err := store.GetAddresses(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, addresses)
	assert.Empty(t, addresses)
}

func TestStoreUserAddressRoundTrip(t *testing.T) {
	store, _, durable := newTestStore()
	ctx := context.Background()

	require.NoError(t, durable.Create(&model.User{Username: "carol"}))
	require.NoError(t, store.StoreUserAddress(ctx, 1, "http://a:9000/incoming"))

	addresses, err := store.GetAddresses(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a:9000/incoming"}, addresses)

	// 重复登记同一地址是幂等的
	require.NoError(t, store.StoreUserAddress(ctx, 1, "http://a:9000/incoming"))
	addresses, err = store.GetAddresses(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, addresses, 1)

	// 删除用户后地址列表回到空
	require.NoError(t, store.DeleteUser(ctx, 1))
	addresses, err = store.GetAddresses(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, addresses)
}

func TestStoreUserTokenWriteThrough(t *testing.T) {
	store, cache, durable := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.StoreUserToken(ctx, 1, "token-1"))
	assert.Equal(t, "token-1", durable.tokens[1])
	assert.Equal(t, "token-1", cache.tokens[1])

	// 再次登录整体替换
	require.NoError(t, store.StoreUserToken(ctx, 1, "token-2"))
	token, err := store.GetToken(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
}

func TestStoreUserTokenDurableFailure(t *testing.T) {
	store, cache, durable := newTestStore()
	durable.failingErr = errors.New("deadlock found")

	err := store.StoreUserToken(context.Background(), 1, "token-1")
	require.Error(t, err)
	// 持久层写入失败时不写缓存
	assert.Empty(t, cache.tokens)
}

func TestGetTokenNotFound(t *testing.T) {
	store, _, _ := newTestStore()

	_, err := store.GetToken(context.Background(), 9)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGetTokenCachedAfterFirstRead(t *testing.T) {
	store, _, durable := newTestStore()
	ctx := context.Background()

	durable.tokens[1] = "token-x"

	_, err := store.GetToken(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, durable.getTokenCalls)

	_, err = store.GetToken(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, durable.getTokenCalls)
}

func TestCheckUserToken(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()

	// 没有令牌记录：false且不报错
	ok, err := store.CheckUserToken(ctx, 1, "whatever")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.StoreUserToken(ctx, 1, "token-1"))

	ok, err = store.CheckUserToken(ctx, 1, "token-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.CheckUserToken(ctx, 1, "token-2")
	require.NoError(t, err)
	assert.False(t, ok)

	// 空令牌永远不能通过
	ok, err = store.CheckUserToken(ctx, 1, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteUserClearsBothTiers(t *testing.T) {
	store, cache, durable := newTestStore()
	ctx := context.Background()

	require.NoError(t, durable.Create(&model.User{Username: "dave"}))
	require.NoError(t, store.StoreUserToken(ctx, 1, "token-1"))
	require.NoError(t, store.StoreUserPublicKey(ctx, 1, "pem"))
	require.NoError(t, store.StoreUserAddress(ctx, 1, "http://d:9000"))

	require.NoError(t, store.DeleteUser(ctx, 1))

	_, err := store.GetUser(ctx, 1)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = store.GetToken(ctx, 1)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = store.GetPublicKey(ctx, 1)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Empty(t, cache.tokens)
	assert.Empty(t, durable.tokens)
}
