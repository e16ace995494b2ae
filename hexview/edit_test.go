package hexview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditSession_Transitions(t *testing.T) {
	var s EditSession
	assert.Equal(t, Viewing, s.Mode)

	s = s.Begin(0x20, 0x3C)
	assert.Equal(t, Editing, s.Mode)
	assert.Equal(t, "3C", s.Display())

	s = s.Type('a')
	assert.Equal(t, "A", s.Display())
	assert.False(t, s.Full())
	s = s.Type('\n')
	assert.Equal(t, "A", s.Draft, "control characters ignored")
	s = s.Type('b')
	assert.True(t, s.Full())
	s = s.Type('c')
	assert.Equal(t, "AB", s.Draft, "input past two characters ignored")

	s = s.Backspace()
	assert.Equal(t, "A", s.Draft)

	next, addr, draft, ok := s.Commit()
	require.True(t, ok)
	assert.Equal(t, Viewing, next.Mode)
	assert.Equal(t, int64(0x20), addr)
	assert.Equal(t, "A", draft)
}

func TestEditSession_IsValueType(t *testing.T) {
	s := EditSession{}.Begin(1, 0)
	typed := s.Type('F')
	assert.Empty(t, s.Draft)
	assert.Equal(t, "F", typed.Draft)
}

func TestEditSession_CancelAndEmptyCommit(t *testing.T) {
	s := EditSession{}.Begin(4, 0xFF).Type('1')
	assert.Equal(t, Viewing, s.Cancel().Mode)

	_, _, _, ok := EditSession{}.Begin(4, 0xFF).Commit()
	assert.False(t, ok)

	var viewing EditSession
	assert.Equal(t, viewing, viewing.Type('1').Backspace())
}

func TestController_Commit(t *testing.T) {
	ctl := openController(t, memorySource(pattern(64)))

	s := EditSession{}.Begin(5, 5).Type('z').Type('z')
	res, next, err := ctl.Commit(s)
	require.ErrorIs(t, err, ErrInvalidEditInput)
	assert.Equal(t, byte(5), res.Value, "typing zz reverts")
	assert.Equal(t, Viewing, next.Mode)
	assert.Equal(t, 0, ctl.Modified())

	s = EditSession{}.Begin(5, 5).Type('a').Type('a')
	res, _, err = ctl.Commit(s)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 1, ctl.Modified())

	res, _, err = ctl.Commit(EditSession{}.Begin(6, 6))
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, byte(6), res.Value)
}
