package wrappers

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/env"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/events"
)

// maxKeptEpisodes bounds the completed-episode history of a StepWrapper
const maxKeptEpisodes = 100

// RewardPolicy shapes the reward of one transition. It sees the
// observation as returned by the wrapped env.
type RewardPolicy[O any] func(obs O, reward float64, terminated, truncated bool, info env.Info) float64

// TerminalBonus adds bonus when the episode terminated and goal holds.
// Truncated episodes never receive the bonus.
func TerminalBonus[O any](bonus float64, goal func(O, env.Info) bool) RewardPolicy[O] {
	return func(obs O, reward float64, terminated, _ bool, info env.Info) float64 {
		if terminated && goal(obs, info) {
			return reward + bonus
		}
		return reward
	}
}

// StepConfig configures a StepWrapper.
type StepConfig[O any] struct {
	// Log keeps episode logs and publishes episode events
	Log bool
	// Policy shapes rewards; nil leaves them unchanged
	Policy RewardPolicy[O]
	Logger zerolog.Logger
	Bus    events.Publisher
}

// StepRecord is one logged transition.
type StepRecord struct {
	Step         int
	Action       any
	Reward       float64
	ShapedReward float64
	Terminated   bool
	Truncated    bool
}

// EpisodeLog is the bookkeeping of one episode.
type EpisodeLog struct {
	ID         string
	SpecID     string
	Seed       *int64
	Started    time.Time
	Steps      []StepRecord
	Return     float64
	Length     int
	Terminated bool
	Truncated  bool
}

// Done reports whether the episode terminated or was truncated.
func (e *EpisodeLog) Done() bool {
	return e.Terminated || e.Truncated
}

// StepWrapper intercepts the step tuple to shape the reward and keep
// episode logs. It never changes observations or the end-of-episode
// flags.
type StepWrapper[O, A any] struct {
	env.Env[O, A]
	cfg      StepConfig[O]
	logger   zerolog.Logger
	current  *EpisodeLog
	episodes []EpisodeLog
}

func NewStepWrapper[O, A any](inner env.Env[O, A], cfg StepConfig[O]) *StepWrapper[O, A] {
	return &StepWrapper[O, A]{
		Env:    inner,
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "step_wrapper").Str("env_id", inner.ID()).Logger(),
	}
}

func (w *StepWrapper[O, A]) Reset(opts env.ResetOptions) (O, env.Info) {
	obs, info := w.Env.Reset(opts)
	if !w.cfg.Log {
		return obs, info
	}

	if w.current != nil && !w.current.Done() {
		w.logger.Debug().
			Str("episode_id", w.current.ID).
			Int("length", w.current.Length).
			Msg("Discarding unfinished episode")
	}

	var seed *int64
	if opts.Seed != nil {
		s := *opts.Seed
		seed = &s
	}
	w.current = &EpisodeLog{
		ID:      uuid.NewString(),
		SpecID:  w.SpecID(),
		Seed:    seed,
		Started: time.Now(),
	}
	if w.cfg.Bus != nil {
		w.cfg.Bus.Publish(events.NewEpisodeStartedEvent(w.ID(), w.current.ID, w.current.SpecID, seed))
	}
	return obs, info
}

func (w *StepWrapper[O, A]) Step(action A) (O, float64, bool, bool, env.Info) {
	obs, reward, terminated, truncated, info := w.Env.Step(action)

	shaped := reward
	if w.cfg.Policy != nil {
		shaped = w.cfg.Policy(obs, reward, terminated, truncated, info)
	}

	if w.cfg.Log && w.current != nil && !w.current.Done() {
		w.record(action, obs, reward, shaped, terminated, truncated, info)
	}
	return obs, shaped, terminated, truncated, info
}

func (w *StepWrapper[O, A]) record(action A, obs O, reward, shaped float64, terminated, truncated bool, info env.Info) {
	ep := w.current
	ep.Length++
	ep.Return += shaped
	ep.Steps = append(ep.Steps, StepRecord{
		Step:         ep.Length,
		Action:       action,
		Reward:       reward,
		ShapedReward: shaped,
		Terminated:   terminated,
		Truncated:    truncated,
	})

	if w.cfg.Bus != nil {
		w.cfg.Bus.Publish(&events.EpisodeStepEvent{
			BaseEvent:    events.BaseEvent{EventType: events.TypeEpisodeStep, Time: time.Now(), Env: w.ID()},
			EpisodeID:    ep.ID,
			Step:         ep.Length,
			Action:       action,
			Observation:  obs,
			Reward:       reward,
			ShapedReward: shaped,
			Terminated:   terminated,
			Truncated:    truncated,
			Info:         info,
		})
	}

	if !terminated && !truncated {
		return
	}
	ep.Terminated, ep.Truncated = terminated, truncated

	w.episodes = append(w.episodes, *ep)
	if len(w.episodes) > maxKeptEpisodes {
		w.episodes = w.episodes[len(w.episodes)-maxKeptEpisodes:]
	}

	duration := time.Since(ep.Started)
	if w.cfg.Bus != nil {
		w.cfg.Bus.Publish(&events.EpisodeEndedEvent{
			BaseEvent:  events.BaseEvent{EventType: events.TypeEpisodeEnded, Time: time.Now(), Env: w.ID()},
			EpisodeID:  ep.ID,
			SpecID:     ep.SpecID,
			Seed:       ep.Seed,
			Length:     ep.Length,
			Return:     ep.Return,
			Terminated: terminated,
			Truncated:  truncated,
			Duration:   duration,
		})
	}
	w.logger.Info().
		Str("episode_id", ep.ID).
		Int("length", ep.Length).
		Float64("return", ep.Return).
		Bool("terminated", terminated).
		Dur("duration", duration).
		Msg("Episode finished")
}

// CurrentEpisode returns a copy of the episode in progress, or nil when
// logging is off or no episode has started.
func (w *StepWrapper[O, A]) CurrentEpisode() *EpisodeLog {
	if w.current == nil {
		return nil
	}
	ep := *w.current
	ep.Steps = append([]StepRecord(nil), w.current.Steps...)
	return &ep
}

// Episodes returns the most recent completed episodes, oldest first.
func (w *StepWrapper[O, A]) Episodes() []EpisodeLog {
	out := make([]EpisodeLog, len(w.episodes))
	copy(out, w.episodes)
	return out
}

// Truncate forwards to the wrapped env.
func (w *StepWrapper[O, A]) Truncate(reason string) { truncate(w.Env, reason) }

// Unwrap returns the wrapped env.
func (w *StepWrapper[O, A]) Unwrap() env.Env[O, A] {
	return w.Env
}
