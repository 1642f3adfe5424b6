package envserver

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/render"
)

// Client is a typed wrapper around the EnvService methods.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Invoke calls method with a raw Struct request.
func (c *Client) Invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, method string, fields map[string]interface{}) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}
	return c.Invoke(ctx, method, in)
}

// MakeResult is the decoded Make response.
type MakeResult struct {
	EnvID      string
	SpecID     string
	RenderMode string
	// NumActions is the size of a discrete action space, 0 otherwise
	NumActions int
	ObsShape   []int
}

// Make creates a remote env. opts uses the Make request keys, e.g.
// {"size": 5, "render_mode": "rgb_array"}.
func (c *Client) Make(ctx context.Context, opts map[string]interface{}) (*MakeResult, error) {
	if opts == nil {
		opts = map[string]interface{}{}
	}
	out, err := c.call(ctx, MethodMake, opts)
	if err != nil {
		return nil, err
	}
	f := out.GetFields()
	res := &MakeResult{
		EnvID:      f["env_id"].GetStringValue(),
		SpecID:     f["spec_id"].GetStringValue(),
		RenderMode: f["render_mode"].GetStringValue(),
	}
	act := f["action_space"].GetStructValue().GetFields()
	if act["type"].GetStringValue() == "discrete" {
		res.NumActions = int(act["n"].GetNumberValue())
	}
	for _, d := range f["observation_space"].GetStructValue().GetFields()["shape"].GetListValue().GetValues() {
		res.ObsShape = append(res.ObsShape, int(d.GetNumberValue()))
	}
	return res, nil
}

// Reset resets a remote env. seed may be nil.
func (c *Client) Reset(ctx context.Context, envID string, seed *int64, options map[string]interface{}) ([]float32, map[string]interface{}, error) {
	fields := map[string]interface{}{"env_id": envID}
	if seed != nil {
		fields["seed"] = *seed
	}
	if options != nil {
		fields["options"] = options
	}
	out, err := c.call(ctx, MethodReset, fields)
	if err != nil {
		return nil, nil, err
	}
	f := out.GetFields()
	return numbers(f["observation"]), f["info"].GetStructValue().AsMap(), nil
}

// StepResult is the decoded Step response.
type StepResult struct {
	Observation []float32
	Reward      float64
	Terminated  bool
	Truncated   bool
	Info        map[string]interface{}
}

// Step sends one action.
func (c *Client) Step(ctx context.Context, envID string, action int) (*StepResult, error) {
	out, err := c.call(ctx, MethodStep, map[string]interface{}{"env_id": envID, "action": action})
	if err != nil {
		return nil, err
	}
	f := out.GetFields()
	return &StepResult{
		Observation: numbers(f["observation"]),
		Reward:      f["reward"].GetNumberValue(),
		Terminated:  f["terminated"].GetBoolValue(),
		Truncated:   f["truncated"].GetBoolValue(),
		Info:        f["info"].GetStructValue().AsMap(),
	}, nil
}

// Render returns the frame for rgb_array envs and the text for ansi envs.
// Both are empty when the env has no render mode.
func (c *Client) Render(ctx context.Context, envID string) (*render.Frame, string, error) {
	out, err := c.call(ctx, MethodRender, map[string]interface{}{"env_id": envID})
	if err != nil {
		return nil, "", err
	}
	f := out.GetFields()
	if px, ok := f["pixels"]; ok {
		pix, err := base64.StdEncoding.DecodeString(px.GetStringValue())
		if err != nil {
			return nil, "", fmt.Errorf("decode pixels: %w", err)
		}
		return &render.Frame{
			Height:   int(f["height"].GetNumberValue()),
			Width:    int(f["width"].GetNumberValue()),
			Channels: int(f["channels"].GetNumberValue()),
			Pix:      pix,
		}, "", nil
	}
	return nil, f["text"].GetStringValue(), nil
}

// Close closes a remote env and returns the steps it ran since its last
// reset.
func (c *Client) Close(ctx context.Context, envID string) (int, error) {
	out, err := c.call(ctx, MethodClose, map[string]interface{}{"env_id": envID})
	if err != nil {
		return 0, err
	}
	return int(out.GetFields()["steps"].GetNumberValue()), nil
}

func numbers(v *structpb.Value) []float32 {
	vals := v.GetListValue().GetValues()
	out := make([]float32, len(vals))
	for i, x := range vals {
		out[i] = float32(x.GetNumberValue())
	}
	return out
}
