package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_AppendKeepsInsertionOrder(t *testing.T) {
	s := NewSession("s1")

	s.Append(RoleHuman, "What is the weather in Surat?")
	s.Append(RoleAgent, "Weather in Surat: clear")
	s.Append(RoleHuman, "And tomorrow?")

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	for i, m := range msgs {
		assert.Equal(t, i, m.Ordinal)
		assert.NotEmpty(t, m.ID)
	}
	assert.Equal(t, RoleHuman, msgs[0].Role)
	assert.Equal(t, RoleAgent, msgs[1].Role)
	assert.Equal(t, "And tomorrow?", msgs[2].Content)
}

func TestSession_MessagesIsACopy(t *testing.T) {
	s := NewSession("s2")
	s.Append(RoleHuman, "hi")

	msgs := s.Messages()
	msgs[0].Content = "changed"

	assert.Equal(t, "hi", s.Messages()[0].Content)
}

func TestSession_ConcurrentAppendsHaveUniqueOrdinals(t *testing.T) {
	s := NewSession("s5")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append(RoleHuman, "x")
		}()
	}
	wg.Wait()

	seen := map[int]bool{}
	for _, m := range s.Messages() {
		assert.False(t, seen[m.Ordinal])
		seen[m.Ordinal] = true
	}
	assert.Len(t, seen, 50)
}

func TestMessage_ModelRole(t *testing.T) {
	assert.Equal(t, RoleUser, Message{Role: RoleHuman}.ModelRole())
	assert.Equal(t, RoleAssistant, Message{Role: RoleAgent}.ModelRole())
}

func TestCoordinates_Valid(t *testing.T) {
	assert.True(t, Coordinates{Lat: 21.17, Lon: 72.83}.Valid())
	assert.False(t, Coordinates{Lat: 91, Lon: 0}.Valid())
	assert.False(t, Coordinates{Lat: 0, Lon: -181}.Valid())
}
