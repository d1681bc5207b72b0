package session

import (
	"testing"

	"partyfinder/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestManagerCreatesLazilyAndReuses(t *testing.T) {
	m := NewManager()
	require.Equal(t, 0, m.Len())

	s1 := m.Get(10)
	require.Equal(t, domain.StateIdle, s1.State)
	require.Equal(t, domain.ScreenMainMenu, s1.Screen)
	require.Equal(t, 1, m.Len())

	s2 := m.Get(10)
	require.Same(t, s1, s2)
	require.Equal(t, 1, m.Len())
}

func TestStackPushPop(t *testing.T) {
	s := NewManager().Get(1)

	_, ok := s.Pop()
	require.False(t, ok)

	s.Push(domain.ScreenMainMenu)
	s.Push(domain.ScreenProfile)
	require.Equal(t, 2, s.StackDepth())

	id, ok := s.Pop()
	require.True(t, ok)
	require.Equal(t, domain.ScreenProfile, id)

	id, ok = s.Pop()
	require.True(t, ok)
	require.Equal(t, domain.ScreenMainMenu, id)

	_, ok = s.Pop()
	require.False(t, ok)
}

func TestLastRenderedCache(t *testing.T) {
	s := NewManager().Get(1)

	_, ok := s.LastRendered(domain.ScreenProfile)
	require.False(t, ok)

	s.SetLastRendered(domain.ScreenProfile, "profile text")
	text, ok := s.LastRendered(domain.ScreenProfile)
	require.True(t, ok)
	require.Equal(t, "profile text", text)
}

func TestResetClearsEverything(t *testing.T) {
	s := NewManager().Get(1)
	s.State = domain.StateSearchRating
	s.Screen = domain.ScreenSearchRating
	s.Draft.Criteria.Mode = &domain.ModeChoice{Any: true}
	s.Push(domain.ScreenMainMenu)
	s.SetLastRendered(domain.ScreenMainMenu, "text")

	s.Reset()

	require.Equal(t, domain.StateIdle, s.State)
	require.Equal(t, domain.ScreenMainMenu, s.Screen)
	require.Nil(t, s.Draft.Criteria.Mode)
	require.Equal(t, 0, s.StackDepth())
	_, ok := s.LastRendered(domain.ScreenMainMenu)
	require.False(t, ok)
}
