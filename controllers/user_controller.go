package controllers

import (
	"net/http"

	"backend/models"
	"backend/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserController struct {
	Auth *services.AuthService
	DB   *gorm.DB
}

func NewUserController(auth *services.AuthService, db *gorm.DB) *UserController {
	return &UserController{Auth: auth, DB: db}
}

func (uc *UserController) GetProfile(c *gin.Context) {
	uid := c.GetUint("userID")

	user, err := uc.Auth.GetUser(uid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":            user.ID,
		"email":         user.Email,
		"full_name":     user.FullName,
		"fitness_goals": user.FitnessGoals,
	})
}

func (uc *UserController) UpdateProfile(c *gin.Context) {
	uid := c.GetUint("userID")

	var input struct {
		FullName     string `json:"full_name"`
		FitnessGoals string `json:"fitness_goals"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := uc.DB.Model(&models.User{}).
		Where("id = ?", uid).
		Updates(map[string]any{
			"full_name":     input.FullName,
			"fitness_goals": input.FitnessGoals,
		}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated successfully"})
}
