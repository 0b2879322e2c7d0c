package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alcyxob/fitness-content/internal/service"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register godoc
// @Summary Register a new user
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body service.RegisterInput true "Registration details"
// @Success 201 {object} envelope "User created, token issued"
// @Failure 422 {object} envelope "Validation error or email/phone taken"
// @Router /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var in service.RegisterInput
	if err := bindInput(c, &in); err != nil {
		respondError(c, err)
		return
	}

	token, user, err := h.authService.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, envelope{Success: true, Message: "Registered successfully.", Data: user, Token: token})
}

// Login godoc
// @Summary Log in a user
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body service.LoginInput true "Login credentials"
// @Success 200 {object} envelope "Login successful"
// @Failure 401 {object} envelope "Invalid credentials"
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var in service.LoginInput
	if err := bindInput(c, &in); err != nil {
		respondError(c, err)
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: "Login successfully.", Data: user, Token: token})
}

// Logout revokes the bearer token of the request.
// @Router /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, _ := claimsFromContext(c)
	h.authService.Logout(c.Request.Context(), claims)
	respondOK(c, "Logged out successfully.", nil)
}

// RegisterAdmin lets an administrator create another administrator.
// @Router /admin/register [post]
func (h *AuthHandler) RegisterAdmin(c *gin.Context) {
	var in service.RegisterInput
	if err := bindInput(c, &in); err != nil {
		respondError(c, err)
		return
	}

	token, user, err := h.authService.RegisterAdmin(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, envelope{Success: true, Message: "Registered successfully.", Data: user, Token: token})
}

// AdminLogin godoc
// @Summary Log in an administrator
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body service.LoginInput true "Login credentials"
// @Success 200 {object} envelope "Login successful"
// @Failure 401 {object} envelope "Invalid credentials or not an administrator"
// @Router /admin/login [post]
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var in service.LoginInput
	if err := bindInput(c, &in); err != nil {
		respondError(c, err)
		return
	}

	token, user, err := h.authService.AdminLogin(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: "Login successfully.", Data: user, Token: token})
}

// AdminProfile returns the signed-in administrator.
// @Router /admin/profile [get]
func (h *AuthHandler) AdminProfile(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, service.ErrInvalidToken.Error())
		return
	}
	user, err := h.authService.User(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Profile fetched successfully.", user)
}
