// Package embedder is the client for the external embedding provider, the
// only collaborator the governor calls out to. The governance core never
// computes embeddings itself; a missing or malformed embedding is a turn
// error, not a retryable state.
package embedder

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/primacy-governor/internal/vecmath"
)

// #region provider

// Provider abstracts the embedding RPC so callers can be tested without a
// live gRPC connection.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// #endregion provider

// #region client

// embedMethod is the provider's full RPC method name. Messages are
// structpb-typed so no generated stubs are checked in.
const embedMethod = "/primacy.v1.Embedder/Embed"

// Client talks to the embedding service over gRPC.
type Client struct {
	conn  *grpc.ClientConn
	cc    grpc.ClientConnInterface
	model string
}

// NewClient connects to the embedding service.
func NewClient(addr, model string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn, model: model}, nil
}

// NewClientWithConn creates a Client over an injected connection.
// Used for testing without a real gRPC dial.
func NewClientWithConn(cc grpc.ClientConnInterface, model string) *Client {
	return &Client{cc: cc, model: model}
}

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion client

// #region embed

// Embed requests an embedding for text and validates the returned vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	req, err := structpb.NewStruct(map[string]interface{}{
		"model": c.model,
		"text":  text,
	})
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}

	resp := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, embedMethod, req, resp); err != nil {
		return nil, fmt.Errorf("embed rpc: %w", err)
	}

	vec, err := vectorField(resp, "embedding")
	if err != nil {
		return nil, err
	}
	if err := vecmath.Validate(vec); err != nil {
		return nil, fmt.Errorf("provider returned %w", err)
	}
	return vec, nil
}

// vectorField extracts a float vector from a structpb response field.
func vectorField(s *structpb.Struct, key string) ([]float32, error) {
	v, ok := s.Fields[key]
	if !ok {
		return nil, fmt.Errorf("embed response missing %q", key)
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("embed response field %q is not a list", key)
	}
	vec := make([]float32, len(list.Values))
	for i, lv := range list.Values {
		nv, ok := lv.Kind.(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("embed response element %d is not numeric", i)
		}
		vec[i] = float32(nv.NumberValue)
	}
	return vec, nil
}

// #endregion embed
