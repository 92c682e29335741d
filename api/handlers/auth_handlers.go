package handlers

import (
	"fmt"
	"net/http"

	"restaurant-manager/core/rbac"
	"restaurant-manager/core/session"
	"restaurant-manager/core/store"
	"restaurant-manager/core/upstream"
	"restaurant-manager/core/utils"
)

const (
	msgCredentialsRequired = "Email and password are required"
	msgInvalidCredentials  = "Invalid email or password"
	msgLoggedOut           = "You have been logged out successfully"
	msgEmailRequired       = "Email is required"
	msgResetSent           = "If an account exists with that email, password reset instructions have been sent"
)

type AuthHandler struct {
	env *Env
}

func NewAuthHandler(env *Env) *AuthHandler {
	return &AuthHandler{env: env}
}

type loginView struct {
	Email string
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) error {
	if currentIdentity(r).Authenticated {
		return redirect(w, r, rbac.DashboardPath)
	}
	return h.env.render(w, r, "auth/login", "Sign in", loginView{Email: r.URL.Query().Get("email")})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) error {
	if currentIdentity(r).Authenticated {
		return redirect(w, r, rbac.DashboardPath)
	}
	f, err := parseForm(r)
	if err != nil {
		return err
	}
	email := f.text("email")
	password := f.raw("password")
	if email == "" || password == "" {
		flash(r, session.MessageError, msgCredentialsRequired)
		return redirect(w, r, rbac.LoginPath)
	}
	res, err := h.env.Upstream.Auth().Login(r.Context(), email, password)
	if err != nil {
		flash(r, session.MessageError, loginFailureText(err))
		h.env.Logger.Printf("AUTH login failed email=%s: %v", utils.FingerprintEmail(email), err)
		return redirect(w, r, rbac.LoginPath)
	}
	sess := currentSession(r)
	sess.Renew()
	sess.SetTokens(res.Tokens.AccessToken, res.Tokens.RefreshToken)
	sess.SetUserInfo(&store.UserInfo{
		ID:       res.User.ID.String(),
		Email:    res.User.Email,
		Username: res.User.Username,
		Name:     res.User.Name,
		Surname:  res.User.Surname,
		Role:     res.User.Role,
	})
	flash(r, session.MessageSuccess, fmt.Sprintf("Welcome back, %s!", res.User.Username))
	h.env.Logger.Printf("AUTH login user=%s role=%s", res.User.Username, res.User.Role)
	return redirect(w, r, rbac.DashboardPath)
}

func loginFailureText(err error) string {
	apiErr, ok := upstream.AsAPIError(err)
	if !ok {
		return fmt.Sprintf("An error occurred: %v", err)
	}
	if apiErr.Kind == upstream.KindUnauthorized || apiErr.Detail == "" {
		return msgInvalidCredentials
	}
	return apiErr.Detail
}

// Logout revokes the tokens upstream on a best effort basis and always
// clears the local session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	id := currentIdentity(r)
	if !id.Authenticated {
		return redirect(w, r, rbac.LoginPath)
	}
	sess := currentSession(r)
	h.env.Upstream.Auth().Logout(r.Context(), sess.AccessToken())
	sess.Clear()
	flash(r, session.MessageSuccess, msgLoggedOut)
	h.env.Logger.Printf("AUTH logout user=%s", id.DisplayName)
	return redirect(w, r, rbac.LoginPath)
}

func (h *AuthHandler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) error {
	if currentIdentity(r).Authenticated {
		return redirect(w, r, rbac.DashboardPath)
	}
	return h.env.render(w, r, "auth/forgot_password", "Reset password", nil)
}

// ForgotPassword answers the same way whether or not the account exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) error {
	if currentIdentity(r).Authenticated {
		return redirect(w, r, rbac.DashboardPath)
	}
	f, err := parseForm(r)
	if err != nil {
		return err
	}
	if f.text("email") == "" {
		flash(r, session.MessageError, msgEmailRequired)
		return redirect(w, r, "/auth/forgot-password")
	}
	flash(r, session.MessageSuccess, msgResetSent)
	return redirect(w, r, rbac.LoginPath)
}
