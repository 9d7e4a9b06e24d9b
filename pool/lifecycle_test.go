package pool

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id     int
	broken atomic.Bool
	closed atomic.Bool
}

func (f *fakeConn) IsBroken() bool                { return f.broken.Load() }
func (f *fakeConn) Close(ctx context.Context) error { f.closed.Store(true); return nil }

func TestPoolAcquireReleaseWithinMaxSize(t *testing.T) {
	var created atomic.Int32
	factory := func(ctx context.Context) (*fakeConn, error) {
		n := created.Add(1)
		return &fakeConn{id: int(n)}, nil
	}

	p := New[*fakeConn](Config{MaxSize: 2, Retry: NoRetryConfig()}, factory, nil)

	c1, err := p.AcquireNoRetry(context.Background())
	require.NoError(t, err)
	c2, err := p.AcquireNoRetry(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, p.Size())

	// Pool is at max size; a third acquire must fail without creating a
	// third connection.
	_, err = p.AcquireNoRetry(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), created.Load())

	p.Release(context.Background(), c1)
	p.Release(context.Background(), c2)
	assert.Equal(t, 2, p.IdleConnections())
	assert.Equal(t, 2, p.Size())
}

func TestPoolReleaseDropsBrokenConnections(t *testing.T) {
	factory := func(ctx context.Context) (*fakeConn, error) {
		return &fakeConn{}, nil
	}
	p := New[*fakeConn](Config{MaxSize: 1, Retry: NoRetryConfig()}, factory, nil)

	c, err := p.AcquireNoRetry(context.Background())
	require.NoError(t, err)

	c.broken.Store(true)
	p.Release(context.Background(), c)

	assert.Equal(t, 0, p.Size())
	assert.True(t, c.closed.Load())
}

func TestPoolReusesIdleConnectionBeforeCreatingNew(t *testing.T) {
	var created atomic.Int32
	factory := func(ctx context.Context) (*fakeConn, error) {
		created.Add(1)
		return &fakeConn{}, nil
	}
	p := New[*fakeConn](Config{MaxSize: 5, Retry: NoRetryConfig()}, factory, nil)

	c, err := p.AcquireNoRetry(context.Background())
	require.NoError(t, err)
	p.Release(context.Background(), c)

	_, err = p.AcquireNoRetry(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), created.Load())
}
