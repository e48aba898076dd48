package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/internal/interface/middleware"
	"github.com/oksasatya/go-task-manager/pkg/response"
)

// multipart framing allowance on top of the avatar limit
const multipartOverhead = 64 << 10

type UserHandler struct {
	Svc    *application.UserService
	Logger logrus.FieldLogger
}

func NewUserHandler(svc *application.UserService, logger logrus.FieldLogger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// session returns the authenticated caller, answering 401 when the route
// was reached without middleware.Auth.
func session(c *gin.Context) (*middleware.Session, bool) {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, application.ErrInvalidToken.Error(), nil)
		return nil, false
	}
	return s, true
}

// Signup handles POST /users.
func (h *UserHandler) Signup(c *gin.Context) {
	var in application.SignupInput
	if err := bindJSON(c, &in); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	u, token, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusCreated, authResponse{User: toUserView(u), Token: token})
}

// Login handles POST /users/login. Every failure is a plain 400.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	u, token, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, application.ErrAuthentication) {
			h.Logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("login failed")
		}
		response.Error(c, http.StatusBadRequest, application.ErrAuthentication.Error(), nil)
		return
	}
	response.OK(c, http.StatusOK, authResponse{User: toUserView(u), Token: token})
}

func (h *UserHandler) Logout(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	if err := h.Svc.Logout(c.Request.Context(), s.User, s.Token); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Empty(c, http.StatusOK)
}

func (h *UserHandler) LogoutAll(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	if err := h.Svc.LogoutAll(c.Request.Context(), s.User); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Empty(c, http.StatusOK)
}

func (h *UserHandler) Me(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	response.OK(c, http.StatusOK, toUserView(h.Svc.GetProfile(s.User)))
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	var patch application.Patch
	if err := bindJSON(c, &patch); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), s.User, patch)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, toUserView(u))
}

func (h *UserHandler) DeleteMe(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	u := s.User
	if err := h.Svc.DeleteAccount(c.Request.Context(), u); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, toUserView(u))
}

// UploadAvatar handles POST /users/me/avatar with multipart field "avatar".
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	tooLarge := &application.ValidationError{
		Message: "file too large",
		Fields:  map[string]string{"avatar": "must be at most 1000000 bytes"},
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, application.MaxAvatarBytes+multipartOverhead)
	fh, err := c.FormFile("avatar")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(c, h.Logger, tooLarge)
			return
		}
		writeError(c, h.Logger, &application.ValidationError{
			Message: "please upload an image",
			Fields:  map[string]string{"avatar": "is required"},
		})
		return
	}
	if fh.Size > application.MaxAvatarBytes {
		writeError(c, h.Logger, tooLarge)
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(io.LimitReader(f, application.MaxAvatarBytes+1))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if err := h.Svc.SetAvatar(c.Request.Context(), s.User, fh.Filename, data); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Empty(c, http.StatusOK)
}

func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	if err := h.Svc.ClearAvatar(c.Request.Context(), s.User); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Empty(c, http.StatusOK)
}

// GetAvatar handles the public GET /users/:id/avatar.
func (h *UserHandler) GetAvatar(c *gin.Context) {
	avatar, err := h.Svc.GetAvatar(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.Data(http.StatusOK, "image/png", avatar)
}
