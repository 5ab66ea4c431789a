package sim

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/OCAP2/seatsync/internal/geo"
	"github.com/OCAP2/seatsync/internal/seat"
	"github.com/OCAP2/seatsync/internal/transport/memory"
	"github.com/OCAP2/seatsync/internal/tree"
	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/OCAP2/seatsync/pkg/protocol"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const angleStep = 360.0 / 256.0

type modeLog struct {
	mu      sync.Mutex
	changes []seat.ModeChange
}

func (l *modeLog) add(c seat.ModeChange) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.changes = append(l.changes, c)
}

func newSim(t *testing.T, defs []SeatDef, opts Options) (*Simulation, *memory.Recorder) {
	t.Helper()
	rec := memory.New()
	opts.Sink = rec
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	opts.IDs = core.NewIDCounter(1000)
	if opts.AngleStep == 0 {
		opts.AngleStep = angleStep
	}
	s, err := New(tree.NewRoot("vehicle", geo.Identity()), defs, opts)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.AttachAll())
	return s, rec
}

func TestNew_DuplicateSeat(t *testing.T) {
	_, err := New(tree.NewRoot("vehicle", geo.Identity()), []SeatDef{{Name: "a"}, {Name: "a"}}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate seat")
}

func TestUnknownSeat(t *testing.T) {
	s, _ := newSim(t, []SeatDef{{Name: "driver"}}, Options{})
	assert.ErrorIs(t, s.Show("gunner", 1), ErrUnknownSeat)
	_, err := s.Eject("gunner", nil)
	assert.ErrorIs(t, err, ErrUnknownSeat)
}

func TestSeats_Order(t *testing.T) {
	s, _ := newSim(t, []SeatDef{{Name: "driver"}, {Name: "gunner"}}, Options{})
	assert.Equal(t, []string{"driver", "gunner"}, s.Seats())
	st, ok := s.Seat("gunner")
	require.True(t, ok)
	assert.True(t, st.IsAttached())
}

func TestLoop_FlipsPlayerAndReportsModeChange(t *testing.T) {
	var log modeLog
	s, rec := newSim(t, []SeatDef{{Name: "driver"}}, Options{OnModeChange: log.add})

	player := tree.NewPlayer(1)
	require.NoError(t, s.SetEntity("driver", player))
	require.NoError(t, s.ShowAll(2))

	const period = 72
	ctx := context.Background()
	for step := 1; step <= period/2; step++ {
		require.NoError(t, s.Step(ctx, VerticalLoop(mgl64.Vec3{0, 10, 0}, 5, 0, step, period)))
	}
	st, _ := s.Seat("driver")
	assert.True(t, st.IsUpsideDown())
	assert.True(t, st.IsFake())

	s.Close()
	log.mu.Lock()
	defer log.mu.Unlock()
	require.NotEmpty(t, log.changes)
	last := log.changes[len(log.changes)-1]
	assert.Equal(t, "driver", last.Seat)
	assert.True(t, last.Current.UpsideDown)
	assert.True(t, last.Transition.Respawn)

	var substitutes int
	for _, p := range rec.For(2) {
		if sp, ok := p.(*protocol.Spawn); ok && sp.Kind == protocol.KindSubstitute {
			substitutes++
		}
	}
	assert.Equal(t, 1, substitutes)
	assert.Equal(t, uint64(period/2), s.Ticks())
}

func TestStep_EchoesViewRotationToPlayer(t *testing.T) {
	s, _ := newSim(t, []SeatDef{{
		Name:   "driver",
		Config: seat.Config{ViewLock: seat.ViewLockMove},
	}}, Options{})

	player := tree.NewPlayer(1)
	require.NoError(t, s.SetEntity("driver", player))
	require.NoError(t, s.ShowAll(1))

	ctx := context.Background()
	for i := 1; i <= 10; i++ {
		require.NoError(t, s.Step(ctx, geo.NewTransform(mgl64.Vec3{}, geo.Rotation{Yaw: 5 * float64(i)})))
	}

	assert.InDelta(t, 50, player.EyeLocation().Yaw, angleStep/2+1e-9)
	assert.InDelta(t, 0, player.EyeLocation().Pitch, angleStep/2+1e-9)
}

func TestEject(t *testing.T) {
	var pos geo.ObjectPosition
	pos.Set(mgl64.Vec3{1, 0, 0}, geo.Rotation{}, geo.AnchorDefault)
	s, _ := newSim(t, []SeatDef{{Name: "driver", Position: pos}}, Options{})

	require.NoError(t, s.Step(context.Background(), geo.NewTransform(mgl64.Vec3{10, 0, 0}, geo.Rotation{})))

	mob := tree.NewMob(3)
	mob.Look(45, 10)
	pose, err := s.Eject("driver", mob)
	require.NoError(t, err)
	assert.InDelta(t, 11, pose.Position.X(), 1e-9)
	assert.InDelta(t, 45, pose.Yaw, 1e-9)
	assert.InDelta(t, 10, pose.Pitch, 1e-9)
}

func TestDetachAll_ReleasesPassengers(t *testing.T) {
	s, rec := newSim(t, []SeatDef{{Name: "driver"}}, Options{})
	player := tree.NewPlayer(1)
	require.NoError(t, s.SetEntity("driver", player))
	require.NoError(t, s.ShowAll(2))
	_, ok := s.Registry().Get(1)
	require.True(t, ok)

	require.NoError(t, s.DetachAll())
	_, ok = s.Registry().Get(1)
	assert.False(t, ok)
	assert.Positive(t, rec.Count(2, protocol.TypeDestroy))
}

func TestStep_Traced(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	s, _ := newSim(t, []SeatDef{{Name: "driver"}}, Options{Tracer: tp.Tracer("test")})
	for range 3 {
		require.NoError(t, s.Step(context.Background(), geo.Identity()))
	}

	ended := sr.Ended()
	require.Len(t, ended, 3)
	assert.Equal(t, "sim.step", ended[0].Name())
}

func TestVerticalLoop(t *testing.T) {
	center := mgl64.Vec3{0, 10, 0}

	start := VerticalLoop(center, 5, 0, 0, 4)
	assert.InDelta(t, 0, start.Pitch(), 1e-9)
	assert.InDelta(t, 5, start.Position().Y(), 1e-9)

	top := VerticalLoop(center, 5, 0, 2, 4)
	assert.InDelta(t, 180, absAngle(top.Pitch()), 1e-6)
	assert.InDelta(t, 15, top.Position().Y(), 1e-9)
	assert.InDelta(t, 0, top.Position().Z(), 1e-9)

	quarter := VerticalLoop(center, 5, 0, 1, 4)
	assert.InDelta(t, 10, quarter.Position().Y(), 1e-9)
	assert.InDelta(t, 5, quarter.Position().Z(), 1e-9)
}

func absAngle(a float64) float64 {
	if a < 0 {
		return -a
	}
	return a
}
