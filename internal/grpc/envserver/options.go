package envserver

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/env"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/registry"
)

// ErrInvalidRequest marks malformed request messages.
var ErrInvalidRequest = errors.New("invalid request")

//go:embed make_options.schema.json
var makeOptionsSchemaJSON string

var makeOptionsSchema = jsonschema.MustCompileString("make_options.schema.json", makeOptionsSchemaJSON)

// MakeOptions are the decoded arguments of Make.
type MakeOptions struct {
	ID              string
	Size            int
	RenderMode      env.RenderMode
	MaxEpisodeSteps int
	Seed            int64
	// ScaleFactor > 0 wraps the env in ScaleObservation.
	ScaleFactor float32
}

// ParseMakeOptions validates req against the Make schema and decodes it.
// A missing id selects GridWorld-v0.
func ParseMakeOptions(req *structpb.Struct) (MakeOptions, error) {
	raw := map[string]interface{}{}
	if req != nil {
		raw = req.AsMap()
	}
	if err := makeOptionsSchema.Validate(raw); err != nil {
		return MakeOptions{}, fmt.Errorf("%w: make options: %v", ErrInvalidRequest, err)
	}

	opts := MakeOptions{ID: registry.GridWorldID}
	if v, ok := raw["id"].(string); ok {
		opts.ID = v
	}
	if v, ok := raw["size"].(float64); ok {
		opts.Size = int(v)
	}
	if v, ok := raw["render_mode"].(string); ok {
		mode, err := env.ParseRenderMode(v)
		if err != nil {
			return MakeOptions{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		opts.RenderMode = mode
	}
	if v, ok := raw["max_episode_steps"].(float64); ok {
		opts.MaxEpisodeSteps = int(v)
	}
	if v, ok := raw["seed"].(float64); ok {
		opts.Seed = int64(v)
	}
	if v, ok := raw["scale_factor"].(float64); ok {
		opts.ScaleFactor = float32(v)
	}
	return opts, nil
}

func envID(req *structpb.Struct) (string, error) {
	id := req.GetFields()["env_id"].GetStringValue()
	if id == "" {
		return "", fmt.Errorf("%w: env_id is required", ErrInvalidRequest)
	}
	return id, nil
}

func intField(req *structpb.Struct, key string) (int, bool, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, false, nil
	}
	n, isNum := v.GetKind().(*structpb.Value_NumberValue)
	if !isNum || n.NumberValue != float64(int64(n.NumberValue)) {
		return 0, true, fmt.Errorf("%w: %s must be an integer", ErrInvalidRequest, key)
	}
	return int(n.NumberValue), true, nil
}

func float32List(xs []float32) []interface{} {
	out := make([]interface{}, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}
