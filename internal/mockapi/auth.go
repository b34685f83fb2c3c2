package mockapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/treegar/admin-console/internal/mockapi/middleware"
	"github.com/treegar/admin-console/internal/model"
)

const tokenTTL = 12 * time.Hour

func (s *Server) login(c echo.Context) error {
	req, err := bind[model.LoginRequest](c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body")
	}
	if err := req.Validate(); err != nil {
		return invalid(c, err)
	}

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	a := st.userByEmail(strings.TrimSpace(req.Email))
	if a == nil || a.password != req.Password {
		return fail(c, http.StatusUnauthorized, "Invalid email or password")
	}
	if !a.IsActive {
		return fail(c, http.StatusBadRequest, "This account has been deactivated")
	}

	if a.TwoFactorEnabled {
		tf := uuid.NewString()
		st.twoFactor[tf] = a.ID
		c.Logger().Infof("mock otp for %s: %s", a.Email, s.opts.OTPCode)
		return ok(c, http.StatusOK, model.LoginResponse{RequiresTwoFactor: true, TwoFactorToken: tf}, "Verification code sent")
	}
	return ok(c, http.StatusOK, s.sessionLocked(a), "Login successful")
}

func (s *Server) sessionLocked(a *account) model.LoginResponse {
	st := s.store
	now := st.now()
	a.LastLoginAt = &now
	exp := now.Add(tokenTTL)
	u := a.User
	return model.LoginResponse{Token: st.issueToken(a.ID), ExpiresAt: &exp, User: &u}
}

func (s *Server) verifyOTP(c echo.Context) error {
	req, err := bind[model.VerifyOTPRequest](c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body")
	}
	if err := req.Validate(); err != nil {
		return invalid(c, err)
	}

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	id, found := st.twoFactor[req.TwoFactorToken]
	a := st.users[id]
	if !found || a == nil {
		return fail(c, http.StatusBadRequest, "Verification session has expired, please log in again")
	}
	if req.Code != s.opts.OTPCode {
		return fieldError(c, "code", "The verification code is incorrect")
	}
	delete(st.twoFactor, req.TwoFactorToken)
	return ok(c, http.StatusOK, s.sessionLocked(a), "Login successful")
}

func (s *Server) resendOTP(c echo.Context) error {
	req, err := bind[model.ResendOTPRequest](c)
	if err != nil || req.TwoFactorToken == "" {
		return fail(c, http.StatusBadRequest, "Missing verification session")
	}

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	id, found := st.twoFactor[req.TwoFactorToken]
	if !found {
		return fail(c, http.StatusBadRequest, "Verification session has expired, please log in again")
	}
	delete(st.twoFactor, req.TwoFactorToken)
	next := uuid.NewString()
	st.twoFactor[next] = id
	return ok(c, http.StatusOK, model.LoginResponse{RequiresTwoFactor: true, TwoFactorToken: next}, "Verification code resent")
}

func (s *Server) me(c echo.Context) error {
	id, _ := middleware.UserIDFromCtx(c)
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	a, found := st.users[id]
	if !found {
		return fail(c, http.StatusUnauthorized, "Session expired")
	}
	return ok(c, http.StatusOK, a.User, "")
}

func (s *Server) currentEmailLocked(c echo.Context) string {
	id, _ := middleware.UserIDFromCtx(c)
	if a, found := s.store.users[id]; found {
		return a.Email
	}
	return ""
}
