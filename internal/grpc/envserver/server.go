package envserver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/env"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/registry"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/spaces"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/wrappers"
)

// Server implements EnvServiceServer on top of a Manager.
type Server struct {
	manager *Manager
	logger  zerolog.Logger
}

var _ EnvServiceServer = (*Server)(nil)

// NewServer creates the service.
func NewServer(manager *Manager, logger zerolog.Logger) *Server {
	return &Server{
		manager: manager,
		logger:  logger.With().Str("component", "env_service").Logger(),
	}
}

// Manager returns the instance manager.
func (s *Server) Manager() *Manager { return s.manager }

// Make creates an instance.
//
// Request: {id?, size?, render_mode?, max_episode_steps?, seed?, scale_factor?}.
// Response: {env_id, spec_id, render_mode, action_space, observation_space,
// metadata, created_at}.
func (s *Server) Make(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	opts, err := ParseMakeOptions(req)
	if err != nil {
		return nil, toStatus(err)
	}
	inst, err := s.manager.Create(opts)
	if err != nil {
		return nil, toStatus(err)
	}

	e := inst.env
	meta := e.Metadata()
	modes := make([]interface{}, len(meta.RenderModes))
	for i, m := range meta.RenderModes {
		modes[i] = string(m)
	}
	return newStruct(map[string]interface{}{
		"env_id":            inst.id,
		"spec_id":           inst.specID,
		"render_mode":       string(inst.mode),
		"action_space":      describeSpace(e.ActionSpace()),
		"observation_space": describeSpace(e.ObservationSpace()),
		"metadata": map[string]interface{}{
			"render_modes": modes,
			"render_fps":   meta.RenderFPS,
		},
		"created_at": inst.created.UTC().Format(time.RFC3339Nano),
	})
}

// Reset starts an episode.
//
// Request: {env_id, seed?, options?}. Response: {observation, info}.
func (s *Server) Reset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.withInstance(req, func(inst *Instance) (map[string]interface{}, error) {
		var opts env.ResetOptions
		seed, ok, err := intField(req, "seed")
		if err != nil {
			return nil, err
		}
		if ok {
			s64 := int64(seed)
			opts.Seed = &s64
		}
		if o := req.GetFields()["options"].GetStructValue(); o != nil {
			opts.Options = o.AsMap()
		}

		obs, info := inst.env.Reset(opts)
		inst.steps = 0
		return map[string]interface{}{
			"observation": float32List(obs),
			"info":        map[string]interface{}(info),
		}, nil
	})
}

// Step advances the episode by one action.
//
// Request: {env_id, action}. Response: {observation, reward, terminated,
// truncated, info}.
func (s *Server) Step(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.withInstance(req, func(inst *Instance) (map[string]interface{}, error) {
		action, ok, err := intField(req, "action")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: action is required", ErrInvalidRequest)
		}

		obs, reward, terminated, truncated, info := inst.env.Step(action)
		inst.steps++
		return map[string]interface{}{
			"observation": float32List(obs),
			"reward":      reward,
			"terminated":  terminated,
			"truncated":   truncated,
			"info":        map[string]interface{}(info),
		}, nil
	})
}

// Render renders the current state in the instance's render mode.
//
// Response: {height, width, channels, pixels} for rgb_array, where pixels
// is the base64 of the row-major RGB bytes, {text} for ansi, and {} when
// no mode is set.
func (s *Server) Render(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.withInstance(req, func(inst *Instance) (map[string]interface{}, error) {
		inst.text.Reset()
		frame, err := inst.env.Render()
		if err != nil {
			return nil, err
		}
		out := map[string]interface{}{"render_mode": string(inst.mode)}
		switch {
		case frame != nil:
			out["height"] = frame.Height
			out["width"] = frame.Width
			out["channels"] = frame.Channels
			out["pixels"] = base64.StdEncoding.EncodeToString(frame.Pix)
		case inst.text.Len() > 0:
			out["text"] = inst.text.String()
		}
		return out, nil
	})
}

// Close closes and removes an instance. Response: {env_id, steps}.
func (s *Server) Close(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := envID(req)
	if err != nil {
		return nil, toStatus(err)
	}
	inst, err := s.manager.Remove(id)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info().
		Str("instance_id", id).
		Int("steps", inst.steps).
		Dur("lifetime", time.Since(inst.created)).
		Msg("Closed env instance")
	return newStruct(map[string]interface{}{"env_id": id, "steps": inst.steps})
}

// withInstance runs fn under the instance lock and turns contract
// violations raised by the env into gRPC status errors.
func (s *Server) withInstance(req *structpb.Struct, fn func(*Instance) (map[string]interface{}, error)) (*structpb.Struct, error) {
	id, err := envID(req)
	if err != nil {
		return nil, toStatus(err)
	}
	inst, err := s.manager.Get(id)
	if err != nil {
		return nil, toStatus(err)
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.lastActivity = time.Now()

	var out map[string]interface{}
	if violation := env.Catch(func() { out, err = fn(inst) }); violation != nil {
		err = violation
	}
	if err != nil {
		s.logger.Debug().Err(err).Str("instance_id", id).Msg("Env call rejected")
		return nil, toStatus(err)
	}
	return newStruct(out)
}

func newStruct(m map[string]interface{}) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return st, nil
}

// toStatus maps env and manager errors onto gRPC codes.
func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	code := codes.Internal
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, env.ErrInvalidAction),
		errors.Is(err, env.ErrInvalidOption),
		errors.Is(err, env.ErrInvalidRenderMode),
		errors.Is(err, env.ErrIncompatibleSpace),
		errors.Is(err, wrappers.ErrInvalidFactor):
		code = codes.InvalidArgument
	case errors.Is(err, env.ErrResetNeeded),
		errors.Is(err, env.ErrClosed):
		code = codes.FailedPrecondition
	case errors.Is(err, ErrEnvNotFound),
		errors.Is(err, registry.ErrUnknownEnv):
		code = codes.NotFound
	case errors.Is(err, ErrAtCapacity):
		code = codes.ResourceExhausted
	}
	return status.Error(code, err.Error())
}

func describeSpace(space any) map[string]interface{} {
	switch sp := space.(type) {
	case *spaces.Discrete:
		return map[string]interface{}{"type": "discrete", "n": sp.N(), "start": sp.Start()}
	case *spaces.Box:
		shape := make([]interface{}, 0)
		for _, d := range sp.Shape() {
			shape = append(shape, d)
		}
		return map[string]interface{}{
			"type":  "box",
			"shape": shape,
			"low":   float32List(sp.Low()),
			"high":  float32List(sp.High()),
		}
	case interface{ String() string }:
		return map[string]interface{}{"type": "other", "repr": sp.String()}
	default:
		return map[string]interface{}{"type": "unknown"}
	}
}
