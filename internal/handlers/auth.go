package handlers

import (
	"errors"
	"net/http"

	"smart_hatchery/internal/models"
	"smart_hatchery/internal/remote"

	"github.com/gin-gonic/gin"
)

const (
	statusSignedOut = "signed_out"

	errInvalidCredentials = "invalid credentials"
)

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}

// @Summary      Register an operator account
// @Description  Forwards the registration to the incubator API.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.Credentials  true  "Credentials"
// @Success      200   {object}  map[string]string   "msg, username"
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /auth/sign-up [post]
func (h *Handler) signUp(c *gin.Context) {
	var input models.Credentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	msg, err := h.services.SignUp(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, "auth_sign_up_failed", err, "username", input.Username)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": msg, "username": input.Username})
}

// @Summary      Sign in
// @Description  Logs in against the incubator API and starts the dashboard session. The returned token authorizes this API.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.Credentials  true  "Credentials"
// @Success      200   {object}  map[string]interface{}  "token, username, expires_at"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	var input models.Credentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	info, err := h.services.SignIn(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, remote.ErrUnauthorized) {
			if h.log != nil {
				h.log.Infow("auth_sign_in_failed", "username", input.Username, "err", err)
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
			return
		}
		h.respondError(c, "auth_sign_in_failed", err, "username", input.Username)
		return
	}

	resp := gin.H{"token": info.AccessToken, "username": info.Username}
	if !info.ExpiresAt.IsZero() {
		resp["expires_at"] = info.ExpiresAt
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /auth/sign-out [post]
// @Security     BearerAuth
func (h *Handler) signOut(c *gin.Context) {
	if err := h.services.SignOut(c.Request.Context()); err != nil {
		h.respondError(c, "auth_sign_out_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSignedOut})
}

// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  service.SessionInfo
// @Failure      401  {object}  map[string]string
// @Router       /auth/session [get]
// @Security     BearerAuth
func (h *Handler) sessionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.SessionStatus())
}
