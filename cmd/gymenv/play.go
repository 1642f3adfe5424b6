package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/config"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/gridworld"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/registry"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/wrappers"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/render"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/render/ebitenwin"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/render/wsstream"
)

type playOptions struct {
	episodes   int
	renderMode string
	size       int
	seed       int64
	manual     bool
	stream     bool
	snapshot   string
}

func newPlayCmd() *cobra.Command {
	opts := playOptions{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run episodes with a random agent, or with the keyboard in human mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.IntVarP(&opts.episodes, "episodes", "n", 5, "Number of episodes to run")
	f.StringVar(&opts.renderMode, "render-mode", "", "Render mode: ansi, rgb_array or human (empty to use config default)")
	f.IntVar(&opts.size, "size", 0, "Grid size (0 to use config default)")
	f.Int64Var(&opts.seed, "seed", -1, "Seed for the first reset (-1 to use config default)")
	f.BoolVar(&opts.manual, "manual", false, "Drive the agent with the arrow keys (human mode window only)")
	f.BoolVar(&opts.stream, "stream", false, "Stream human mode frames over websockets instead of opening a window")
	f.StringVar(&opts.snapshot, "snapshot", "", "Write the final rgb_array frame to this PNG file")
	return cmd
}

func runPlay(ctx context.Context, opts playOptions) error {
	cfg := config.Get()
	if opts.renderMode != "" {
		cfg.Env.RenderMode = opts.renderMode
	}
	if opts.size > 0 {
		cfg.Env.Size = opts.size
	}
	if opts.seed >= 0 {
		cfg.Env.Seed = opts.seed
	}
	if opts.stream {
		cfg.Stream.Enabled = true
	}
	mode, err := cfg.Env.Mode()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctxOrBackground(ctx), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.Logger
	sinks, err := openSinks(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Warn().Err(err).Msg("Error closing episode sinks")
		}
	}()

	var (
		backend render.Backend
		window  *ebitenwin.Window
	)
	if mode == env.RenderHuman {
		if cfg.Stream.Enabled {
			streamer := wsstream.NewStreamer(logger)
			srv := &http.Server{Addr: cfg.Stream.Addr, Handler: streamer.Handler()}
			go func() {
				logger.Info().Str("addr", cfg.Stream.Addr).Msg("Streaming frames")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error().Err(err).Msg("Frame stream server failed")
				}
			}()
			defer srv.Close()
			backend = streamer
		} else {
			window = ebitenwin.NewWindow("GridWorld", cfg.Env.WindowSize, cfg.Env.WindowSize, logger)
			backend = window
		}
	}

	e, err := buildEnv(cfg, mode, backend, sinks, logger)
	if err != nil {
		return err
	}

	p := &player{
		env:      e,
		episodes: opts.episodes,
		seed:     cfg.Env.Seed,
		logger:   logger,
	}
	if opts.manual && window != nil {
		p.actions = window.Actions()
	}

	if window == nil {
		err := p.run(ctx)
		return errors.Join(err, e.Close(), p.writeSnapshot(opts.snapshot))
	}

	// ebiten owns the main goroutine; the agent runs beside it
	done := make(chan error, 1)
	p.status = window.SetStatus
	go func() {
		err := p.run(ctx)
		window.Quit()
		done <- err
	}()
	winErr := window.Run()
	stop()
	return errors.Join(<-done, winErr, e.Close())
}

// buildEnv makes the configured env and stacks the configured wrappers on
// it. Construction-time contract violations come back as errors.
func buildEnv(cfg *config.Config, mode env.RenderMode, backend render.Backend, s *sinks, logger zerolog.Logger) (e registry.GridEnv, err error) {
	defer env.Recover(&err)

	var seed int64
	if cfg.Env.Seed > 0 {
		seed = cfg.Env.Seed
	}
	e, err = registry.Make(cfg.Env.ID, registry.MakeConfig{
		RenderMode:      mode,
		Size:            cfg.Env.Size,
		WindowSize:      cfg.Env.WindowSize,
		MaxEpisodeSteps: cfg.Env.MaxEpisodeSteps,
		Seed:            seed,
		Backend:         backend,
		Logger:          logger,
		Bus:             s.bus,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Wrappers.Scale.Enabled {
		scaled, serr := wrappers.ScaleObservation[int](e, float32(cfg.Wrappers.Scale.Factor))
		if serr != nil {
			_ = e.Close()
			return nil, serr
		}
		e = scaled
	}
	if cfg.Wrappers.Step.Enabled {
		stepCfg := wrappers.StepConfig[[]float32]{
			Log:    cfg.Wrappers.Step.Log,
			Logger: logger,
			Bus:    s.bus,
		}
		if bonus := cfg.Wrappers.Step.TerminalBonus; bonus != 0 {
			stepCfg.Policy = wrappers.TerminalBonus(bonus, gridworld.ReachedTarget)
		}
		e = wrappers.NewStepWrapper[[]float32, int](e, stepCfg)
	}
	return e, nil
}

// player drives an env for a number of episodes.
type player struct {
	env      registry.GridEnv
	episodes int
	seed     int64
	// actions replaces the random agent when set
	actions <-chan int
	status  func(string)
	logger  zerolog.Logger

	last *render.Frame
}

func (p *player) run(ctx context.Context) error {
	var returns []float64
	for ep := 0; ep < p.episodes; ep++ {
		opts := env.ResetOptions{}
		if ep == 0 && p.seed >= 0 {
			opts = env.WithSeed(p.seed)
		}

		ret, length, err := p.episode(ctx, ep, opts)
		if err != nil {
			return err
		}
		returns = append(returns, ret)
		p.logger.Info().
			Int("episode", ep+1).
			Int("length", length).
			Float64("return", ret).
			Msg("Episode finished")
	}

	if len(returns) > 0 {
		total := 0.0
		for _, r := range returns {
			total += r
		}
		p.logger.Info().
			Int("episodes", len(returns)).
			Float64("mean_return", total/float64(len(returns))).
			Msg("Play finished")
	}
	return nil
}

func (p *player) episode(ctx context.Context, ep int, opts env.ResetOptions) (ret float64, length int, err error) {
	defer env.Recover(&err)

	_, _ = p.env.Reset(opts)
	if err := p.present(); err != nil {
		return 0, 0, err
	}

	for {
		action, ok := p.nextAction(ctx)
		if !ok {
			return ret, length, ctx.Err()
		}
		_, reward, terminated, truncated, _ := p.env.Step(action)
		ret += reward
		length++
		if p.status != nil {
			p.status(fmt.Sprintf("episode %d  step %d  return %.1f", ep+1, length, ret))
		}
		if err := p.present(); err != nil {
			return ret, length, err
		}
		if terminated || truncated {
			return ret, length, nil
		}
	}
}

func (p *player) nextAction(ctx context.Context) (int, bool) {
	if p.actions == nil {
		select {
		case <-ctx.Done():
			return 0, false
		default:
			return p.env.ActionSpace().Sample(), true
		}
	}
	select {
	case <-ctx.Done():
		return 0, false
	case a, ok := <-p.actions:
		return a, ok
	}
}

// present renders for the modes that need an explicit call. Human mode
// renders inside Reset and Step.
func (p *player) present() error {
	switch p.env.RenderMode() {
	case env.RenderANSI:
		_, err := p.env.Render()
		if err == nil {
			// keeps the board readable when stepping fast
			time.Sleep(50 * time.Millisecond)
		}
		return err
	case env.RenderRGBArray:
		frame, err := p.env.Render()
		if err != nil {
			return err
		}
		p.last = frame
	}
	return nil
}

func (p *player) writeSnapshot(path string) error {
	if path == "" || p.last == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, p.last.RGBA()); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	p.logger.Info().Str("path", path).Msg("Wrote frame snapshot")
	return nil
}

func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
