package controllers

import (
	"net/http"

	"backend/models"
	"backend/services"

	"github.com/gin-gonic/gin"
)

type GoalController struct {
	Goals    *services.DailyGoalService
	Sessions *services.SessionManager
}

func NewGoalController(goals *services.DailyGoalService, sessions *services.SessionManager) *GoalController {
	return &GoalController{Goals: goals, Sessions: sessions}
}

// GetGoals returns targets plus today's progress against them.
func (gc *GoalController) GetGoals(c *gin.Context) {
	uid := c.GetUint("userID")

	goal, err := gc.Goals.GetGoals(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sess := gc.Sessions.Ensure(c.Request.Context(), uid)
	_, _, totals := sess.Tracker.Snapshot()
	progress, err := gc.Goals.Progress(c.Request.Context(), uid, totals)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goal, "progress": progress})
}

func (gc *GoalController) UpdateGoals(c *gin.Context) {
	uid := c.GetUint("userID")

	var req struct {
		Calories float64  `json:"calories"`
		Protein  float64  `json:"protein"`
		Carbs    float64  `json:"carbs"`
		Fat      *float64 `json:"fat"`
		Fiber    *float64 `json:"fiber"`
		Sodium   *float64 `json:"sodium"`
		Sugar    *float64 `json:"sugar"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deref := func(p *float64) float64 {
		if p == nil {
			return 0
		}
		return *p
	}

	goal := models.DailyGoal{
		Calories: req.Calories,
		Protein:  req.Protein,
		Carbs:    req.Carbs,
		Fat:      deref(req.Fat),
		Fiber:    deref(req.Fiber),
		Sodium:   deref(req.Sodium),
		Sugar:    deref(req.Sugar),
	}
	if err := gc.Goals.UpsertGoals(c.Request.Context(), uid, goal); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
