package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SessionPerCart(t *testing.T) {
	m, err := NewManager(newRegistry(), &mockOrders{}, nil, 10, quietLogger())
	require.NoError(t, err)

	a := m.Session("a")
	assert.Same(t, a, m.Session("a"))
	assert.NotSame(t, a, m.Session("b"))
	assert.Equal(t, 2, m.Len())

	got, ok := m.Lookup("a")
	require.True(t, ok)
	assert.Same(t, a, got)
	_, ok = m.Lookup("missing")
	assert.False(t, ok)
}

func TestManager_CloseTearsDown(t *testing.T) {
	m, err := NewManager(newRegistry(), &mockOrders{}, nil, 10, quietLogger())
	require.NoError(t, err)

	a := m.Session("a")
	assert.True(t, m.Close("a"))
	assert.True(t, a.Closed())
	assert.False(t, m.Close("a"))

	fresh := m.Session("a")
	assert.NotSame(t, a, fresh)
	assert.Equal(t, StateEditing, fresh.State())
}

func TestManager_EvictionClosesSession(t *testing.T) {
	m, err := NewManager(newRegistry(), &mockOrders{}, nil, 2, quietLogger())
	require.NoError(t, err)

	a := m.Session("a")
	m.Session("b")
	m.Session("c")

	assert.True(t, a.Closed())
	assert.Equal(t, 2, m.Len())
}

func TestManager_Shutdown(t *testing.T) {
	m, err := NewManager(newRegistry(), &mockOrders{}, nil, 0, quietLogger())
	require.NoError(t, err)

	a := m.Session("a")
	m.Shutdown()
	assert.True(t, a.Closed())
	assert.Equal(t, 0, m.Len())
}
