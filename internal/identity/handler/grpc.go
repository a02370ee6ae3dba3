// Package handler exposes the credential service as the auth.v1.AuthService gRPC service.
// Messages are plain structs carried by the JSON codec in internal/server/codec.
package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"auth-ms/internal/identity/domain"
	"auth-ms/internal/identity/service"
	"auth-ms/internal/server/interceptors"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "auth.v1.AuthService"

// Full method names, for interceptor skip lists and clients.
const (
	RegisterMethod         = "/" + ServiceName + "/Register"
	LoginMethod            = "/" + ServiceName + "/Login"
	VerifyAndRefreshMethod = "/" + ServiceName + "/VerifyAndRefresh"
)

// RegisterRequest is the Register input.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the Login input.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyRequest is the VerifyAndRefresh input. An empty Token falls back to the
// Bearer token in the authorization metadata.
type VerifyRequest struct {
	Token string `json:"token"`
}

// Credentials is the credential service as seen by the transport.
type Credentials interface {
	Register(ctx context.Context, name, email, password string) (*domain.AuthResult, error)
	Login(ctx context.Context, email, password string) (*domain.AuthResult, error)
	VerifyAndRefresh(ctx context.Context, token string) (*domain.AuthResult, error)
}

// AuthServiceServer is the server API for auth.v1.AuthService.
type AuthServiceServer interface {
	Register(context.Context, *RegisterRequest) (*domain.AuthResult, error)
	Login(context.Context, *LoginRequest) (*domain.AuthResult, error)
	VerifyAndRefresh(context.Context, *VerifyRequest) (*domain.AuthResult, error)
}

// AuthServer implements AuthServiceServer over a Credentials service.
type AuthServer struct {
	creds Credentials
}

// NewAuthServer returns a new Auth gRPC server. creds may be nil; all RPCs then return Unimplemented.
func NewAuthServer(creds Credentials) *AuthServer {
	return &AuthServer{creds: creds}
}

// Register creates an identity and returns its claims and token.
func (s *AuthServer) Register(ctx context.Context, req *RegisterRequest) (*domain.AuthResult, error) {
	if s.creds == nil {
		return nil, status.Error(codes.Unimplemented, "method Register not implemented")
	}
	res, err := s.creds.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return nil, ToStatus(err)
	}
	return res, nil
}

// Login checks email and password and returns claims and a token.
func (s *AuthServer) Login(ctx context.Context, req *LoginRequest) (*domain.AuthResult, error) {
	if s.creds == nil {
		return nil, status.Error(codes.Unimplemented, "method Login not implemented")
	}
	res, err := s.creds.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, ToStatus(err)
	}
	return res, nil
}

// VerifyAndRefresh validates a token and returns its claims with a new token.
func (s *AuthServer) VerifyAndRefresh(ctx context.Context, req *VerifyRequest) (*domain.AuthResult, error) {
	if s.creds == nil {
		return nil, status.Error(codes.Unimplemented, "method VerifyAndRefresh not implemented")
	}
	token := req.Token
	if token == "" {
		token = interceptors.BearerToken(ctx)
	}
	res, err := s.creds.VerifyAndRefresh(ctx, token)
	if err != nil {
		return nil, ToStatus(err)
	}
	return res, nil
}

var statusCodes = map[service.Status]codes.Code{
	service.StatusConflict:     codes.AlreadyExists,
	service.StatusNotFound:     codes.NotFound,
	service.StatusUnauthorized: codes.Unauthenticated,
	service.StatusInternal:     codes.Internal,
}

// ToStatus maps a credential service error to a gRPC status carrying only the public message.
func ToStatus(err error) error {
	e := service.AsError(err)
	code, ok := statusCodes[e.Status]
	if !ok {
		code = codes.Internal
	}
	return status.Error(code, e.Message)
}

// FromStatus maps a gRPC error returned by AuthService back to the matching credential service error.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return service.AsError(err)
	}
	for s, code := range statusCodes {
		if st.Code() == code {
			return &service.Error{Status: s, Message: st.Message()}
		}
	}
	return service.AsError(err)
}

// RegisterAuthServiceServer registers srv with s.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

// AuthServiceDesc is the grpc.ServiceDesc for auth.v1.AuthService.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: registerHandler},
		{MethodName: "Login", Handler: loginHandler},
		{MethodName: "VerifyAndRefresh", Handler: verifyAndRefreshHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "auth/v1/auth",
}

func registerHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RegisterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).Register(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RegisterMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthServiceServer).Register(ctx, req.(*RegisterRequest))
	})
}

func loginHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(LoginRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).Login(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LoginMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthServiceServer).Login(ctx, req.(*LoginRequest))
	})
}

func verifyAndRefreshHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(VerifyRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).VerifyAndRefresh(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: VerifyAndRefreshMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthServiceServer).VerifyAndRefresh(ctx, req.(*VerifyRequest))
	})
}
