package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2026, 8, 14, 9, 30, 0, 123456789, time.UTC)
	encoded := EncodeCursor("9f2c9e6a-0001-4d7b-8f00-000000000001", ts)
	require.NotEmpty(t, encoded)

	cursor, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, "9f2c9e6a-0001-4d7b-8f00-000000000001", cursor.LastID)
	assert.True(t, cursor.Timestamp.Equal(ts))
}

func TestDecodeCursor_EmptyMeansFirstPage(t *testing.T) {
	cursor, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, cursor)
}

func TestEncodeCursor_EmptyID(t *testing.T) {
	assert.Empty(t, EncodeCursor("", time.Now()))
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, raw := range []string{
		"not base64 at all!",
		base64.StdEncoding.EncodeToString([]byte("missing-separator")),
		base64.StdEncoding.EncodeToString([]byte("|2026-08-14T09:30:00Z")),
		base64.StdEncoding.EncodeToString([]byte("some-id|not-a-time")),
	} {
		_, err := DecodeCursor(raw)
		assert.ErrorIs(t, err, ErrInvalidCursor, "input %q", raw)
	}
}
