package room

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelemetryDefaultsReason(t *testing.T) {
	m := newTestManager(t, nil)
	conn := &fakeConn{uid: "a", open: true}

	_, err := m.Broadcast([]Connection{conn, &fakeConn{uid: "b"}}, BroadcastOptions{})
	require.NoError(t, err)

	recent := m.Telemetry().Recent()
	require.Len(t, recent, 1)
	rec := recent[0]
	assert.Equal(t, "unspecified", rec.Reason)
	assert.Equal(t, 2, rec.Clients)
	assert.Equal(t, len(conn.sent[0]), rec.Bytes)
	assert.Equal(t, int64(1), rec.Version)
	assert.Equal(t, time.UnixMilli(42), rec.At)
}

func TestTelemetryRingKeepsNewest(t *testing.T) {
	tel, err := NewTelemetry(nil, 3)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		tel.Record(BroadcastRecord{Reason: fmt.Sprintf("r%d", i), Version: int64(i)})
	}

	recent := tel.Recent()
	require.Len(t, recent, 3)
	assert.Equal(t, "r3", recent[0].Reason)
	assert.Equal(t, "r5", recent[2].Reason)
}

func TestTelemetryDefaultSize(t *testing.T) {
	tel, err := NewTelemetry(nil, 0)
	require.NoError(t, err)

	for i := 0; i < DefaultTelemetrySize+10; i++ {
		tel.Record(BroadcastRecord{Version: int64(i)})
	}

	recent := tel.Recent()
	require.Len(t, recent, DefaultTelemetrySize)
	assert.Equal(t, int64(10), recent[0].Version)
}
