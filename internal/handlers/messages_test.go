// internal/handlers/messages_test.go
package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCreateRoom(t *testing.T) {
	raw := []byte(`{"type":"createRoom","userId":"u1","word":"cat","hostName":"Ada"}`)

	msg, userID, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	m, ok := msg.(CreateRoomMsg)
	require.True(t, ok)
	assert.Equal(t, "cat", m.Word)
	assert.Equal(t, "Ada", m.HostName)
}

func TestDecodeMakeGuessLetter(t *testing.T) {
	raw := []byte(`{"type":"makeGuess","userId":"u1","roomId":"r1","letter":"c"}`)

	msg, _, err := Decode(raw)
	require.NoError(t, err)

	m, ok := msg.(MakeGuessMsg)
	require.True(t, ok)
	assert.Equal(t, "c", m.Letter)
	assert.False(t, m.IsWordGuess)
}

func TestDecodeMakeGuessWordVariant(t *testing.T) {
	raw := []byte(`{"type":"makeGuess","userId":"u1","roomId":"r1","isWordGuess":true,"word":"cat"}`)

	msg, _, err := Decode(raw)
	require.NoError(t, err)

	m, ok := msg.(MakeGuessMsg)
	require.True(t, ok)
	assert.True(t, m.IsWordGuess)
	assert.Equal(t, "cat", m.Word)
}

func TestDecodeRejectsMalformedPayloads(t *testing.T) {
	cases := map[string][]byte{
		"not json":            []byte(`{"type":`),
		"guess without room":  []byte(`{"type":"makeGuess","userId":"u1","letter":"c"}`),
		"multi-rune letter":   []byte(`{"type":"makeGuess","userId":"u1","roomId":"r1","letter":"ab"}`),
		"non-letter guess":    []byte(`{"type":"makeGuess","userId":"u1","roomId":"r1","letter":"7"}`),
		"empty letter":        []byte(`{"type":"makeGuess","userId":"u1","roomId":"r1"}`),
		"word guess no word":  []byte(`{"type":"makeGuess","userId":"u1","roomId":"r1","isWordGuess":true}`),
		"guessWord no word":   []byte(`{"type":"guessWord","userId":"u1","roomId":"r1"}`),
		"join without roomId": []byte(`{"type":"joinRoom","userId":"u1"}`),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Decode(raw)
			assert.ErrorIs(t, err, ErrInvalidMessageFormat)
		})
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, userID, err := Decode([]byte(`{"type":"teleport","userId":"u1"}`))
	assert.ErrorIs(t, err, ErrInvalidMessageType)
	assert.Equal(t, "u1", userID, "identity is still extracted for binding")
}

func TestDecodeWordInputIsAccepted(t *testing.T) {
	msg, _, err := Decode([]byte(`{"type":"wordInput","userId":"u1","word":"whatever"}`))
	require.NoError(t, err)
	_, ok := msg.(WordInputMsg)
	assert.True(t, ok)
}

func TestDecodeUnicodeLetter(t *testing.T) {
	msg, _, err := Decode([]byte(`{"type":"makeGuess","userId":"u1","roomId":"r1","letter":"Ç"}`))
	require.NoError(t, err)
	m, ok := msg.(MakeGuessMsg)
	require.True(t, ok)
	assert.Equal(t, "Ç", m.Letter)
}
