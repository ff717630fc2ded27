package timefmt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampMarshal(t *testing.T) {
	ts := New(time.Date(2023, 2, 25, 16, 30, 0, 0, time.UTC))

	data, err := json.Marshal(ts)

	require.NoError(t, err)
	assert.Equal(t, `"2023-02-25 16:30:00+00:00"`, string(data))
}

func TestTimestampMarshalWithOffset(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ts := New(time.Date(1995, 1, 15, 12, 0, 0, 0, loc))

	data, err := json.Marshal(ts)

	require.NoError(t, err)
	assert.Equal(t, `"1995-01-15 12:00:00+01:00"`, string(data))
}

func TestTimestampRoundTrip(t *testing.T) {
	orig := New(time.Date(1996, 3, 15, 12, 0, 0, 0, time.UTC))

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var parsed Timestamp
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.True(t, orig.Equal(parsed.Time))
}

func TestNewPtr(t *testing.T) {
	assert.Nil(t, NewPtr(nil))

	now := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := NewPtr(&now)
	require.NotNil(t, ts)
	assert.True(t, ts.Equal(now))
}
