package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/foldernotes/notes-server/internal/auth"
	"github.com/foldernotes/notes-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	limited := huma.Middlewares{s.rateLimit}

	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/auth/register",
		Summary:     "Register new user",
		Description: "Creates a new account. Usernames are unique.",
		Tags:        []string{"Authentication"},
		Middlewares: limited,
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "User login",
		Description: "Verifies the password and issues a credential: a session cookie or a bearer token, depending on the server strategy.",
		Tags:        []string{"Authentication"},
		Middlewares: limited,
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodGet,
		Path:        "/auth/logout",
		Summary:     "Logout",
		Description: "Revokes the current session and clears the cookie. Bearer tokens stay valid until they expire.",
		Tags:        []string{"Authentication"},
		Middlewares: limited,
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "changePassword",
		Method:      http.MethodPost,
		Path:        "/auth/change-password",
		Summary:     "Change password",
		Description: "Replaces the password of the named account after verifying the old one.",
		Tags:        []string{"Authentication"},
		Middlewares: limited,
	}, s.handleChangePassword)
}

// === DTOs ===

// Fields are optional at the schema level so the validator can report
// every missing or oversized field at once.

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Name     string `json:"name,omitempty" doc:"Display name, at most 20 characters"`
	Username string `json:"username,omitempty" doc:"Unique username, at most 20 characters"`
	Password string `json:"password,omitempty" doc:"Password"`
}

// RegisterInput wraps the registration request for Huma.
type RegisterInput struct {
	Body RegisterRequest
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Username string `json:"username,omitempty" doc:"Username"`
	Password string `json:"password,omitempty" doc:"Password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// ChangePasswordRequest is the request body for a password change.
type ChangePasswordRequest struct {
	Username    string `json:"username,omitempty" doc:"Username of the account"`
	OldPassword string `json:"oldPassword,omitempty" doc:"Current password"`
	NewPassword string `json:"newPassword,omitempty" doc:"New password"`
}

// ChangePasswordInput wraps the password change request for Huma.
type ChangePasswordInput struct {
	Body ChangePasswordRequest
}

// LogoutInput carries the credential headers so they are documented.
type LogoutInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token, for the token strategy"`
	Cookie        string `header:"Cookie" doc:"Session cookie, for the session strategy"`
}

// StatusResponse is the body of auth operations that return no payload.
type StatusResponse struct {
	Status    string `json:"status" enum:"success" doc:"Always \"success\""`
	AuthToken string `json:"authToken,omitempty" doc:"Bearer token, issued by login under the token strategy"`
}

// StatusOutput wraps a StatusResponse for Huma.
type StatusOutput struct {
	SetCookie string `header:"Set-Cookie" doc:"Session cookie, set by login and cleared by logout"`
	Body      StatusResponse
}

func success() *StatusOutput {
	return &StatusOutput{Body: StatusResponse{Status: "success"}}
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*StatusOutput, error) {
	_, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Name:     input.Body.Name,
		Username: input.Body.Username,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return success(), nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*StatusOutput, error) {
	result, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Username: input.Body.Username,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	out := success()
	switch result.Strategy {
	case auth.StrategySession:
		out.SetCookie = s.sessionCookie(result.Credential)
	case auth.StrategyToken:
		out.Body.AuthToken = result.Credential.Value
	}
	return out, nil
}

func (s *Server) handleLogout(ctx context.Context, input *LogoutInput) (*StatusOutput, error) {
	out := success()

	var credential string
	if s.gate.Issuer().Strategy() == auth.StrategySession {
		credential, _ = cookieValue(input.Cookie, s.opts.CookieName)
		out.SetCookie = s.clearedCookie()
	} else {
		credential, _ = bearerToken(input.Authorization)
	}

	if err := s.services.Auth.Logout(ctx, credential); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Server) handleChangePassword(ctx context.Context, input *ChangePasswordInput) (*StatusOutput, error) {
	err := s.services.Auth.ChangePassword(ctx, service.ChangePasswordRequest{
		Username:    input.Body.Username,
		OldPassword: input.Body.OldPassword,
		NewPassword: input.Body.NewPassword,
	})
	if err != nil {
		return nil, err
	}
	return success(), nil
}
