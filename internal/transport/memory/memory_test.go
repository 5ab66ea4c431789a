package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/OCAP2/seatsync/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * 50 * time.Millisecond)
		n++
		return t
	}
}

func TestRecorderOrdersPerObserver(t *testing.T) {
	r := New()
	r.Send(1, &protocol.Spawn{Entity: 10})
	r.Send(2, &protocol.Mount{Carrier: 10, Passenger: 5})
	r.Send(1, &protocol.Destroy{Entities: []core.EntityID{10}})

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{protocol.TypeSpawn, protocol.TypeDestroy}, r.Types(1))
	assert.Equal(t, []string{protocol.TypeMount}, r.Types(2))
	assert.Equal(t, 1, r.Count(1, protocol.TypeDestroy))
	assert.Equal(t, 0, r.Count(3, protocol.TypeSpawn))

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, uint64(1), all[0].Seq)
	assert.Equal(t, uint64(3), all[2].Seq)

	r.Reset()
	assert.Zero(t, r.Len())
	assert.Empty(t, r.For(1))
}

func TestBuildCapture(t *testing.T) {
	r := New()
	r.now = fixedClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))

	r.Send(7, &protocol.Spawn{Entity: 11, Kind: protocol.KindCarrier, Flags: protocol.FlagInvisible})
	r.Send(7, &protocol.RelativeRotation{Yaw: 1.40625})

	c, err := r.BuildCapture("loop")
	require.NoError(t, err)
	assert.Equal(t, "loop", c.Name)
	require.Len(t, c.Packets, 2)
	assert.Equal(t, int64(0), c.Packets[0].Offset)
	assert.Equal(t, int64(50), c.Packets[1].Offset)
	assert.Equal(t, protocol.TypeSpawn, c.Packets[0].Packet.Type)
	assert.Equal(t, core.EntityID(7), c.Packets[1].Packet.Observer)
	assert.JSONEq(t, `{"yaw":1.40625,"pitch":0}`, string(c.Packets[1].Packet.Payload))
}

func TestExport(t *testing.T) {
	for _, compress := range []bool{false, true} {
		r := New()
		r.now = fixedClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
		r.Send(1, &protocol.Metadata{Entity: 3, Flags: protocol.FlagUpsideDown})

		dir := t.TempDir()
		path, err := r.Export(dir, "vertical loop", compress)
		require.NoError(t, err)
		assert.Equal(t, dir, filepath.Dir(path))
		assert.True(t, strings.HasPrefix(filepath.Base(path), "vertical_loop_20240115_103000.json"))

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()

		var dec *json.Decoder
		if compress {
			assert.True(t, strings.HasSuffix(path, ".gz"))
			gz, err := gzip.NewReader(f)
			require.NoError(t, err)
			defer gz.Close()
			dec = json.NewDecoder(gz)
		} else {
			dec = json.NewDecoder(f)
		}

		var c Capture
		require.NoError(t, dec.Decode(&c))
		require.Len(t, c.Packets, 1)
		_, p, err := protocol.Decode(mustMarshal(t, c.Packets[0].Packet))
		require.NoError(t, err)
		assert.Equal(t, &protocol.Metadata{Entity: 3, Flags: protocol.FlagUpsideDown}, p)
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
