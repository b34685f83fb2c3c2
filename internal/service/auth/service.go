// Package auth drives the login, one-time code and logout flows against the
// Admin API and keeps the session manager in step with them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/treegar/admin-console/internal/model"
	"github.com/treegar/admin-console/internal/query"
	"github.com/treegar/admin-console/internal/session"
)

const (
	PathLogin     = "/login"
	PathVerifyOTP = "/verify-otp"
	PathResendOTP = "/resend-otp"
	PathMe        = "/me"
)

var (
	ErrNoPendingLogin  = errors.New("no pending two-factor login")
	ErrIncompleteLogin = errors.New("login response has neither a token nor a two-factor challenge")
	ErrNotSignedIn     = errors.New("not signed in")
)

// API is the slice of apiclient.Client the auth flows use.
type API interface {
	Get(ctx context.Context, path string, params url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

type Service struct {
	api   API
	sess  *session.Manager
	cache *query.Cache
	log   *zap.Logger
}

// New wires the flows. cache may be nil; when set it is cleared whenever
// the signed-in identity changes.
func New(api API, sess *session.Manager, cache *query.Cache, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{api: api, sess: sess, cache: cache, log: log.Named("auth")}
}

// Login submits email and password. It returns PendingTwoFactor when the
// account needs a one-time code, Authenticated otherwise.
func (s *Service) Login(ctx context.Context, email, password string) (session.State, error) {
	req := model.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := req.Validate(); err != nil {
		return session.Anonymous, err
	}

	var resp model.LoginResponse
	if err := s.api.Post(ctx, PathLogin, req, &resp); err != nil {
		return session.Anonymous, err
	}

	switch {
	case resp.RequiresTwoFactor:
		if resp.TwoFactorToken == "" {
			return session.Anonymous, ErrIncompleteLogin
		}
		if err := s.sess.BeginTwoFactor(ctx, session.Handshake{Token: resp.TwoFactorToken, Email: req.Email}); err != nil {
			return session.Anonymous, fmt.Errorf("store handshake: %w", err)
		}
		s.log.Info("two-factor code required", zap.String("email", req.Email))
		return session.PendingTwoFactor, nil

	case resp.Token != "" && resp.User != nil:
		if err := s.signIn(ctx, resp.Token, *resp.User); err != nil {
			return session.Anonymous, err
		}
		return session.Authenticated, nil
	}
	return session.Anonymous, ErrIncompleteLogin
}

// VerifyOTP completes a pending login. A rejected code leaves the
// handshake in place so the user can try again.
func (s *Service) VerifyOTP(ctx context.Context, code string) (*model.User, error) {
	h, err := s.sess.Handshake(ctx)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrNoPendingLogin
	}

	req := model.VerifyOTPRequest{Email: h.Email, TwoFactorToken: h.Token, Code: strings.TrimSpace(code)}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp model.LoginResponse
	if err := s.api.Post(ctx, PathVerifyOTP, req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User == nil {
		return nil, ErrIncompleteLogin
	}
	if err := s.signIn(ctx, resp.Token, *resp.User); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// ResendOTP asks for a new code and restarts the handshake window.
func (s *Service) ResendOTP(ctx context.Context) error {
	h, err := s.sess.Handshake(ctx)
	if err != nil {
		return err
	}
	if h == nil {
		return ErrNoPendingLogin
	}

	var resp model.LoginResponse
	if err := s.api.Post(ctx, PathResendOTP, model.ResendOTPRequest{TwoFactorToken: h.Token}, &resp); err != nil {
		return err
	}
	next := session.Handshake{Token: h.Token, Email: h.Email}
	if resp.TwoFactorToken != "" {
		next.Token = resp.TwoFactorToken
	}
	return s.sess.BeginTwoFactor(ctx, next)
}

// Logout forgets the session locally and drops every cached query.
func (s *Service) Logout(ctx context.Context) error {
	if s.cache != nil {
		s.cache.Clear()
	}
	return s.sess.Logout(ctx)
}

// Me fetches the signed-in profile and refreshes the stored copy.
func (s *Service) Me(ctx context.Context) (*model.User, error) {
	tok, err := s.sess.Token(ctx)
	if err != nil {
		return nil, err
	}
	if tok == "" {
		return nil, ErrNotSignedIn
	}

	var u model.User
	if err := s.api.Get(ctx, PathMe, nil, &u); err != nil {
		return nil, err
	}
	if err := s.sess.SetAuthenticated(ctx, tok, u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) signIn(ctx context.Context, token string, u model.User) error {
	if err := s.sess.SetAuthenticated(ctx, token, u); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if s.cache != nil {
		s.cache.Clear()
	}
	s.log.Info("signed in", zap.String("email", u.Email))
	return nil
}
