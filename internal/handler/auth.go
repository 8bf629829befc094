package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bordrail/internal/config"
	"github.com/iliyamo/bordrail/internal/middleware"
	"github.com/iliyamo/bordrail/internal/model"
	"github.com/iliyamo/bordrail/internal/service"
	"github.com/iliyamo/bordrail/internal/utils"
)

// Authenticator checks catalog credentials.
type Authenticator interface {
	Authenticate(userID int, password string) (model.User, service.LoginOutcome)
}

// AuthHandler issues admin access tokens to catalog users.
type AuthHandler struct {
	Cfg   config.Config
	Users Authenticator
}

func NewAuthHandler(cfg config.Config, users Authenticator) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users}
}

// ----- DTOs -----

type loginReq struct {
	UserID   *int   `json:"user_id"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type authResp struct {
	User   userPart  `json:"user"`
	Access tokenPart `json:"access"`
}

// Login: POST /v1/auth/login
//
// The password is compared the same way the booking protocol compares it.
// Users listed in OPERATOR_USER_IDS get the OPERATOR role.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.UserID == nil || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id/password required"})
	}

	u, outcome := h.Users.Authenticate(*req.UserID, req.Password)
	if outcome != service.LoginOK {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	role := utils.RoleCustomer
	if h.Cfg.IsOperator(u.ID) {
		role = utils.RoleOperator
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	c.Logger().Infof("admin login user=%d role=%s", u.ID, role)

	return c.JSON(http.StatusOK, authResp{
		User:   userPart{ID: u.ID, Name: u.Name, Role: role},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Me: GET /v1/me
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := strconv.Atoi(middleware.CurrentUserID(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": id, "role": middleware.CurrentRole(c)})
}
