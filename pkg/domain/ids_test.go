package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "marina/pkg/domain-errors"
)

func TestParseAccountID(t *testing.T) {
	t.Run("parses a valid UUID", func(t *testing.T) {
		raw := uuid.NewString()
		accountID, err := ParseAccountID(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, accountID.String())
		assert.False(t, accountID.IsNil())
	})

	t.Run("rejects bad input", func(t *testing.T) {
		for name, raw := range map[string]string{
			"empty":     "",
			"garbage":   "not-a-uuid",
			"nil uuid":  "00000000-0000-0000-0000-000000000000",
			"truncated": uuid.NewString()[:10],
		} {
			t.Run(name, func(t *testing.T) {
				_, err := ParseAccountID(raw)
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			})
		}
	})
}

// The four ID types share one parser; a spot check per type is enough.
func TestParsePerType(t *testing.T) {
	raw := uuid.NewString()

	boatmanID, err := ParseBoatmanID(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, boatmanID.String())

	agencyID, err := ParseAgencyID(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, agencyID.String())

	requestID, err := ParseRequestID(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, requestID.String())

	_, err = ParseBoatmanID("")
	assert.Error(t, err)
	_, err = ParseAgencyID("nope")
	assert.Error(t, err)
	_, err = ParseRequestID(uuid.Nil.String())
	assert.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	accountID := AccountID(uuid.New())

	raw, err := json.Marshal(accountID)
	require.NoError(t, err)
	assert.Equal(t, `"`+accountID.String()+`"`, string(raw))

	var decoded AccountID
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, accountID, decoded)

	assert.Error(t, json.Unmarshal([]byte(`"not-a-uuid"`), &decoded))
}

func TestIsNil(t *testing.T) {
	assert.True(t, AccountID{}.IsNil())
	assert.True(t, RequestID(uuid.Nil).IsNil())
	assert.False(t, AccountID(uuid.New()).IsNil())
}
