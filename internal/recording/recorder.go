package recording

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/events"
)

// Record kinds, stored under the "kind" key.
const (
	KindStep    = "step"
	KindEpisode = "episode"
)

// Recorder is an event subscriber that persists logged transitions and
// episode summaries through a Writer.
type Recorder struct {
	id     string
	w      *Writer
	logger zerolog.Logger
}

// NewRecorder wraps w. The id is used for bus registration.
func NewRecorder(id string, w *Writer, logger zerolog.Logger) *Recorder {
	return &Recorder{
		id:     id,
		w:      w,
		logger: logger.With().Str("component", "episode_recorder").Logger(),
	}
}

func (r *Recorder) ID() string { return r.id }

func (r *Recorder) InterestedIn(eventType string) bool {
	return eventType == events.TypeEpisodeStep || eventType == events.TypeEpisodeEnded
}

// HandleEvent writes the event. Failures are logged, never returned to
// the publishing env.
func (r *Recorder) HandleEvent(e events.Event) {
	var kind string
	switch e.(type) {
	case *events.EpisodeStepEvent:
		kind = KindStep
	case *events.EpisodeEndedEvent:
		kind = KindEpisode
	default:
		return
	}

	rec, err := ToRecord(kind, e)
	if err != nil {
		r.logger.Error().Err(err).Str("event_type", e.Type()).Msg("Failed to encode record")
		return
	}
	if err := r.w.Write(rec); err != nil {
		r.logger.Error().Err(err).Str("event_type", e.Type()).Msg("Failed to write record")
		return
	}
	if kind == KindEpisode {
		r.logger.Debug().
			Str("env_id", e.EnvID()).
			Str("file", r.w.Path()).
			Msg("Episode recorded")
	}
}

// Close closes the underlying writer.
func (r *Recorder) Close() error {
	return r.w.Close()
}

// ToRecord converts any JSON-encodable event into a Struct tagged with
// kind. Observations and actions go through their JSON form, so any
// generic observation type works.
func ToRecord(kind string, v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s record: %w", kind, err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("encode %s record: %w", kind, err)
	}
	m["kind"] = kind
	if d, ok := m["duration"].(float64); ok {
		m["duration_ms"] = time.Duration(d).Seconds() * 1000
		delete(m, "duration")
	}
	return structpb.NewStruct(m)
}
