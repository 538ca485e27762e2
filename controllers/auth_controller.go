package controllers

import (
	"net/http"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Auth     *services.AuthService
	Sessions *services.SessionManager
}

func NewAuthController(auth *services.AuthService, sessions *services.SessionManager) *AuthController {
	return &AuthController{Auth: auth, Sessions: sessions}
}

type registerReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ac.Auth.Register(req.Email, req.Password, req.FullName)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "could not create user"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email})
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (ac *AuthController) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := ac.Auth.Authenticate(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	// sign-in is the auth-state flip that starts the tracking session
	ac.Sessions.Ensure(c.Request.Context(), user.ID)

	c.JSON(http.StatusOK, gin.H{"token": token, "user_id": user.ID})
}

func (ac *AuthController) Logout(c *gin.Context) {
	uid := c.GetUint("userID")
	ac.Sessions.End(uid)
	c.Status(http.StatusNoContent)
}
