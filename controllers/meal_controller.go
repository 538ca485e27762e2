package controllers

import (
	"errors"
	"net/http"

	"backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MealController struct {
	Sessions *services.SessionManager
}

func NewMealController(sessions *services.SessionManager) *MealController {
	return &MealController{Sessions: sessions}
}

// LogMeal creates a meal for today. The response record comes from the
// post-create re-read of the store.
func (mc *MealController) LogMeal(c *gin.Context) {
	uid := c.GetUint("userID")

	var in services.MealInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	sess := mc.Sessions.Ensure(c.Request.Context(), uid)
	rec, err := sess.Tracker.AddMeal(c.Request.Context(), in)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrNotAuthenticated) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "meal": rec})
}

func (mc *MealController) DeleteMeal(c *gin.Context) {
	uid := c.GetUint("userID")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid meal id"})
		return
	}

	sess := mc.Sessions.Ensure(c.Request.Context(), uid)
	if err := sess.Tracker.DeleteMeal(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, services.ErrNotAuthenticated):
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "meal not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Today returns the tracker's current snapshot: date, meal list and
// derived totals.
func (mc *MealController) Today(c *gin.Context) {
	uid := c.GetUint("userID")

	sess := mc.Sessions.Ensure(c.Request.Context(), uid)
	date, meals, totals := sess.Tracker.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"date":   date,
		"meals":  meals,
		"totals": totals,
	})
}
