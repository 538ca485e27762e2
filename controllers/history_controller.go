package controllers

import (
	"net/http"
	"strings"
	"time"

	"backend/services"
	"backend/utils"

	"github.com/gin-gonic/gin"
)

type HistoryController struct {
	Sessions *services.SessionManager
}

func NewHistoryController(sessions *services.SessionManager) *HistoryController {
	return &HistoryController{Sessions: sessions}
}

// MealsByDate serves one date, lazily loading it on first request.
// GET /history/meals?date=YYYY-MM-DD
func (hc *HistoryController) MealsByDate(c *gin.Context) {
	uid := c.GetUint("userID")

	date := c.Query("date")
	if _, err := utils.ParseDate(date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format. Use YYYY-MM-DD"})
		return
	}

	sess := hc.Sessions.Ensure(c.Request.Context(), uid)
	meals, err := sess.History.GetMealsForDate(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	totals, _ := sess.History.GetNutritionTotalsForDate(c.Request.Context(), date)
	c.JSON(http.StatusOK, gin.H{"date": date, "meals": meals, "totals": totals})
}

// Preload batch-loads a comma-separated list of dates for the session.
// POST /history/preload?dates=d1,d2,...
func (hc *HistoryController) Preload(c *gin.Context) {
	uid := c.GetUint("userID")

	raw := c.Query("dates")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing 'dates' query param"})
		return
	}
	dates := strings.Split(raw, ",")
	for _, d := range dates {
		if _, err := utils.ParseDate(d); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date: " + d})
			return
		}
	}

	sess := hc.Sessions.Ensure(c.Request.Context(), uid)
	sess.History.LoadMealHistory(c.Request.Context(), dates)
	c.Status(http.StatusNoContent)
}

// WeeklySummary aggregates an inclusive range; defaults to the trailing
// 7 days ending today.
// GET /history/summary?start=YYYY-MM-DD&end=YYYY-MM-DD
func (hc *HistoryController) WeeklySummary(c *gin.Context) {
	uid := c.GetUint("userID")

	end := c.DefaultQuery("end", utils.LocalDate(time.Now()))
	start := c.Query("start")
	if start == "" {
		if d, err := utils.ParseDate(end); err == nil {
			start = utils.LocalDate(d.AddDate(0, 0, -6))
		}
	}

	sess := hc.Sessions.Ensure(c.Request.Context(), uid)
	summary, err := sess.History.GetWeeklyNutritionSummary(c.Request.Context(), start, end)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}
