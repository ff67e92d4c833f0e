package ids

import (
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func TestNewULID(t *testing.T) {
	first, err := NewULID()
	require.NoError(t, err)
	second, err := NewULID()
	require.NoError(t, err)

	for _, id := range []string{first, second} {
		_, err := ulid.ParseStrict(id)
		require.NoError(t, err, id)
	}
	require.Less(t, first, second, "ULIDs minted in sequence sort in sequence")
}

func TestNewUUID(t *testing.T) {
	id := NewUUID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	require.NotEqual(t, id, NewUUID())
}
