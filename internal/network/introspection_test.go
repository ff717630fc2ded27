package network

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridt-app/gridt/internal/signal"
)

func TestGetNetworkData(t *testing.T) {
	f := newEngineFixture(t)
	const mov = int64(1)
	u1 := f.newSubscriber(t, "u1", mov)
	u2 := f.newSubscriber(t, "u2", mov)
	u3 := f.newSubscriber(t, "u3", mov)
	f.link(t, u1, u2, mov)
	f.link(t, u2, u3, mov)

	message := "Done!"
	require.NoError(t, f.signals.Insert(f.ctx, &signal.Signal{
		LeaderID:   u2,
		MovementID: mov,
		TimeStamp:  time.Date(2023, 2, 25, 16, 30, 0, 0, time.UTC),
		Message:    &message,
	}))

	introspector := NewIntrospector(f.links, f.rels, f.signals)
	data, err := introspector.GetNetworkData(f.ctx, mov)

	require.NoError(t, err)
	require.Len(t, data.Nodes, 3)
	require.Len(t, data.Edges, 2)
	assert.Equal(t, Edge{FollowerID: u1, LeaderID: u2}, data.Edges[0])
	assert.Equal(t, Edge{FollowerID: u2, LeaderID: u3}, data.Edges[1])

	encoded, err := json.Marshal(data)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"nodes": [
			[1, null],
			[2, {"time_stamp": "2023-02-25 16:30:00+00:00", "message": "Done!"}],
			[3, null]
		],
		"edges": [[1, 2], [2, 3]]
	}`, string(encoded))
}

func TestGetNetworkDataEmptyMovement(t *testing.T) {
	f := newEngineFixture(t)

	introspector := NewIntrospector(f.links, f.rels, f.signals)
	data, err := introspector.GetNetworkData(f.ctx, 42)

	require.NoError(t, err)
	assert.Empty(t, data.Nodes)
	assert.Empty(t, data.Edges)

	encoded, err := json.Marshal(data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes": [], "edges": []}`, string(encoded))
}
