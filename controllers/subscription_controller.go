package controllers

import (
	"net/http"
	"os"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type SubscriptionController struct {
	Subs *services.SubscriptionService
}

func NewSubscriptionController(subs *services.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{Subs: subs}
}

// Status re-reconciles billing state and returns the resolved tier view.
// Reconciliation never errors toward paid access, so this handler always
// has a status to return.
func (sc *SubscriptionController) Status(c *gin.Context) {
	uid := c.GetUint("userID")
	status := sc.Subs.RefreshSubscriptionStatus(c.Request.Context(), uid)
	c.JSON(http.StatusOK, status)
}

type purchaseReq struct {
	ProductID string `json:"product_id" binding:"required"`
	Receipt   string `json:"receipt" binding:"required"`
	Platform  string `json:"platform" binding:"required"`
}

func (sc *SubscriptionController) Purchase(c *gin.Context) {
	uid := c.GetUint("userID")

	var req purchaseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	status, err := sc.Subs.Purchase(c.Request.Context(), uid, req.ProductID, req.Receipt, req.Platform)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error(), "status": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}

func (sc *SubscriptionController) Restore(c *gin.Context) {
	uid := c.GetUint("userID")

	status, err := sc.Subs.RestorePurchases(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error(), "status": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}

// Reset downgrades the stored record to free. QA builds only.
func (sc *SubscriptionController) Reset(c *gin.Context) {
	if os.Getenv("ALLOW_SUB_RESET") != "1" {
		c.JSON(http.StatusForbidden, gin.H{"error": "disabled"})
		return
	}
	uid := c.GetUint("userID")
	if err := sc.Subs.ResetForTesting(c.Request.Context(), uid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
