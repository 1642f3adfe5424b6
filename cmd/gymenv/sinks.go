package main

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/config"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/episodedb"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/events"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/events/subscribers"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/recording"
)

// sinks is the event bus plus the episode recorder and index subscribed
// to it.
type sinks struct {
	bus      *events.EventBus
	recorder *recording.Recorder
	index    *episodedb.Index
}

func openSinks(cfg *config.Config, logger zerolog.Logger) (*sinks, error) {
	s := &sinks{bus: events.NewEventBus()}

	trace := subscribers.NewLoggerSubscriber("event_log", logger, zerolog.DebugLevel)
	trace.SetEventFilter([]string{events.TypeEpisodeStarted, events.TypeEpisodeEnded, events.TypeEnvClosed})
	s.bus.Subscribe(trace)

	if cfg.Recording.Enabled {
		w := recording.NewWriter(cfg.Recording.Dir, cfg.Recording.Prefix)
		s.recorder = recording.NewRecorder("recorder", w, logger)
		s.bus.Subscribe(s.recorder)
		logger.Info().Str("dir", cfg.Recording.Dir).Msg("Recording episodes")
	}

	if cfg.EpisodeDB.Enabled {
		idx, err := episodedb.Open(cfg.EpisodeDB.Path, logger)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.index = idx
		s.bus.Subscribe(idx.Subscriber("episode_index"))
		logger.Info().Str("path", cfg.EpisodeDB.Path).Msg("Indexing episodes")
	}
	return s, nil
}

func (s *sinks) Close() error {
	var errs []error
	if s.recorder != nil {
		errs = append(errs, s.recorder.Close())
	}
	if s.index != nil {
		errs = append(errs, s.index.Close())
	}
	return errors.Join(errs...)
}
