package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// AuthServiceClient calls the auth service over an existing connection
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAuthServiceClient creates a client on cc
func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

// Register creates an account
func (c *AuthServiceClient) Register(ctx context.Context, email, password string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, RegisterMethod, map[string]any{"email": email, "password": password}, opts...)
}

// Login exchanges credentials for a session token
func (c *AuthServiceClient) Login(ctx context.Context, email, password string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, LoginMethod, map[string]any{"email": email, "password": password}, opts...)
}

// VerifyToken returns the identity carried by token
func (c *AuthServiceClient) VerifyToken(ctx context.Context, token string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, VerifyTokenMethod, map[string]any{"token": token}, opts...)
}

func (c *AuthServiceClient) invoke(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
