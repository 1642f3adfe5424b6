package recording

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/env"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/gridworld"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/wrappers"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/events"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/testutil"
)

func record(t *testing.T, fields map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func TestWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "test")
	w.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC) }

	require.NoError(t, w.Write(record(t, map[string]interface{}{"n": 1.0})))
	require.NoError(t, w.Write(record(t, map[string]interface{}{"n": 2.0, "tag": "x"})))
	path := w.Path()
	require.NoError(t, w.Close())

	assert.Equal(t, filepath.Join(dir, "test-2024-03-09-14.jsonl.zst"), path)

	recs, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 1.0, recs[0].Fields["n"].GetNumberValue())
	assert.Equal(t, "x", recs[1].Fields["tag"].GetStringValue())

	stats := w.Stats()
	assert.Equal(t, int64(2), stats.TotalWritten)
	assert.Equal(t, int64(1), stats.Rotations)
	assert.Zero(t, stats.WriteErrors)
	assert.Positive(t, stats.BytesWritten)
}

func TestWriterRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "ep")
	now := time.Date(2024, 3, 9, 14, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	require.NoError(t, w.Write(record(t, map[string]interface{}{"hour": 14.0})))
	now = now.Add(2 * time.Minute)
	require.NoError(t, w.Write(record(t, map[string]interface{}{"hour": 15.0})))
	require.NoError(t, w.Close())

	files, err := Files(dir, "ep")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "ep-2024-03-09-14.jsonl.zst", filepath.Base(files[0]))
	assert.Equal(t, "ep-2024-03-09-15.jsonl.zst", filepath.Base(files[1]))

	for i, f := range files {
		recs, err := ReadFile(f)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, float64(14+i), recs[0].Fields["hour"].GetNumberValue())
	}
}

func TestWriterAppendsAcrossSessions(t *testing.T) {
	dir := t.TempDir()
	fixed := func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	for i := 0; i < 2; i++ {
		w := NewWriter(dir, "")
		w.now = fixed
		require.NoError(t, w.Write(record(t, map[string]interface{}{"session": float64(i)})))
		require.NoError(t, w.Close())
	}

	recs, err := ReadFile(filepath.Join(dir, "episodes-2024-01-01-00.jsonl.zst"))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 1.0, recs[1].Fields["session"].GetNumberValue())
}

func TestWriterClosed(t *testing.T) {
	w := NewWriter(t.TempDir(), "x")
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Write(record(t, nil)), ErrWriterClosed)
}

func TestReadFileErrors(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.jsonl.zst"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.jsonl.zst")
	require.NoError(t, os.WriteFile(bad, []byte("not zstd"), 0o644))
	_, err = ReadFile(bad)
	assert.Error(t, err)
}

func TestToRecord(t *testing.T) {
	ev := &events.EpisodeEndedEvent{
		BaseEvent: events.BaseEvent{EventType: events.TypeEpisodeEnded, Env: "env-1"},
		EpisodeID: "ep-1",
		SpecID:    "GridWorld-v0",
		Length:    3,
		Return:    1,
		Duration:  1500 * time.Millisecond,
	}
	rec, err := ToRecord(KindEpisode, ev)
	require.NoError(t, err)

	f := rec.Fields
	assert.Equal(t, KindEpisode, f["kind"].GetStringValue())
	assert.Equal(t, "ep-1", f["episode_id"].GetStringValue())
	assert.Equal(t, "env-1", f["env_id"].GetStringValue())
	assert.Equal(t, 3.0, f["length"].GetNumberValue())
	assert.Equal(t, 1500.0, f["duration_ms"].GetNumberValue())
	assert.NotContains(t, f, "duration")
	assert.NotContains(t, f, "seed")
}

func TestRecorderCapturesEpisode(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewEventBus()
	w := NewWriter(dir, "run")
	rec := NewRecorder("recorder", w, testutil.NopLogger())
	bus.Subscribe(rec)

	g, err := gridworld.New(gridworld.Config{Size: 3, Bus: bus, Logger: testutil.NopLogger()})
	require.NoError(t, err)
	sw := wrappers.NewStepWrapper[[]float32, int](g, wrappers.StepConfig[[]float32]{Log: true, Bus: bus})

	sw.Reset(env.ResetOptions{Options: map[string]any{
		"agent":  [2]int{0, 0},
		"target": [2]int{2, 0},
	}})
	sw.Step(gridworld.Right)
	_, _, terminated, _, _ := sw.Step(gridworld.Right)
	require.True(t, terminated)

	path := w.Path()
	require.NoError(t, rec.Close())

	recs, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, KindStep, recs[0].Fields["kind"].GetStringValue())
	assert.Equal(t, 1.0, recs[0].Fields["step"].GetNumberValue())
	assert.Equal(t, float64(gridworld.Right), recs[0].Fields["action"].GetNumberValue())
	obs := recs[0].Fields["observation"].GetListValue().GetValues()
	require.Len(t, obs, 4)
	assert.Equal(t, 1.0, obs[0].GetNumberValue())

	last := recs[2].Fields
	assert.Equal(t, KindEpisode, last["kind"].GetStringValue())
	assert.Equal(t, 2.0, last["length"].GetNumberValue())
	assert.Equal(t, 1.0, last["return"].GetNumberValue())
	assert.True(t, last["terminated"].GetBoolValue())
	assert.Equal(t, g.ID(), last["env_id"].GetStringValue())
}

func TestRecorderIgnoresOtherEvents(t *testing.T) {
	w := NewWriter(t.TempDir(), "x")
	rec := NewRecorder("r", w, testutil.NopLogger())

	assert.True(t, rec.InterestedIn(events.TypeEpisodeStep))
	assert.True(t, rec.InterestedIn(events.TypeEpisodeEnded))
	assert.False(t, rec.InterestedIn(events.TypePhaseChanged))

	rec.HandleEvent(events.NewEnvClosedEvent("env", 1))
	assert.Zero(t, w.Stats().TotalWritten)
	assert.Equal(t, "r", rec.ID())
}
