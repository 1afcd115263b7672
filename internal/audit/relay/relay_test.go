package relay

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageKey(t *testing.T) {
	t.Run("extracts event ID", func(t *testing.T) {
		eventID := uuid.New()
		payload := []byte(`{"ID":"` + eventID.String() + `","Action":"decision_made"}`)

		key, err := messageKey(payload)
		require.NoError(t, err)
		assert.Equal(t, []byte(eventID.String()), key)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		_, err := messageKey([]byte(`{`))
		require.Error(t, err)
	})

	t.Run("rejects non-uuid event ID", func(t *testing.T) {
		_, err := messageKey([]byte(`{"ID":"not-a-uuid"}`))
		require.Error(t, err)
	})
}
