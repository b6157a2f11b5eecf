package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/typerace/internal/race"
)

func TestRegistry_CreateRetriesOnCollision(t *testing.T) {
	gen := &MockCodeGenerator{}
	gen.On("Generate").Return("AAAAAA").Twice()
	gen.On("Generate").Return("BBBBBB").Once()

	g := NewRegistry(gen)
	first, err := g.Create(raceText, race.NewPlayer("a", "Ana"))
	require.NoError(t, err)
	t.Cleanup(first.close)
	second, err := g.Create(raceText, race.NewPlayer("b", "Bo"))
	require.NoError(t, err)
	t.Cleanup(second.close)

	assert.Equal(t, "AAAAAA", first.Code())
	assert.Equal(t, "BBBBBB", second.Code())
	assert.Equal(t, 2, g.Len())
	gen.AssertNumberOfCalls(t, "Generate", 3)

	code, ok := g.RoomOf("b")
	require.True(t, ok)
	assert.Equal(t, "BBBBBB", code)
}

func TestRegistry_CodeSpaceExhausted(t *testing.T) {
	g := NewRegistry(CodeGeneratorFunc(func() string { return "SAME00" }))
	room, err := g.Create(raceText, race.NewPlayer("a", "Ana"))
	require.NoError(t, err)
	t.Cleanup(room.close)

	_, err = g.Create(raceText, race.NewPlayer("b", "Bo"))
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
	assert.Equal(t, 1, g.Len())
	_, ok := g.RoomOf("b")
	assert.False(t, ok)
}

func TestRegistry_RemoveClearsMemberships(t *testing.T) {
	g := NewRegistry(nil)
	room, err := g.Create(raceText, race.NewPlayer("a", "Ana"))
	require.NoError(t, err)
	t.Cleanup(room.close)
	g.Attach("b", room.Code())
	g.Attach("c", "OTHER0")

	g.remove(room)

	_, err = g.Lookup(room.Code())
	assert.ErrorIs(t, err, ErrRoomNotFound)
	for _, conn := range []string{"a", "b"} {
		_, ok := g.RoomOf(conn)
		assert.False(t, ok, conn)
	}
	code, ok := g.RoomOf("c")
	assert.True(t, ok)
	assert.Equal(t, "OTHER0", code)
}

func TestRegistry_RemoveIgnoresReplacedRoom(t *testing.T) {
	g := NewRegistry(CodeGeneratorFunc(func() string { return "REUSE1" }))
	old, err := g.Create(raceText, race.NewPlayer("a", "Ana"))
	require.NoError(t, err)
	t.Cleanup(old.close)
	g.remove(old)

	current, err := g.Create(raceText, race.NewPlayer("b", "Bo"))
	require.NoError(t, err)
	t.Cleanup(current.close)

	g.remove(old)
	got, err := g.Lookup("REUSE1")
	require.NoError(t, err)
	assert.Same(t, current, got)
}

func TestRegistry_DetachOnlyMatchingRoom(t *testing.T) {
	g := NewRegistry(nil)
	g.Attach("a", "ROOM01")

	g.Detach("a", "ROOM02")
	_, ok := g.RoomOf("a")
	assert.True(t, ok)

	g.Detach("a", "ROOM01")
	_, ok = g.RoomOf("a")
	assert.False(t, ok)
}

func TestRandomCodes(t *testing.T) {
	gen := RandomCodes()
	seen := map[string]bool{}
	for range 200 {
		code := gen.Generate()
		assert.Regexp(t, `^[A-Z2-7]{6}$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "ABC123", normalizeCode("  abc123 "))
	assert.Equal(t, "", normalizeCode(""))
}
