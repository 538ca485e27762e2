package routes

import (
	"backend/controllers"
	"backend/middlewares"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps is everything the router needs, built once in main.
type Deps struct {
	DB           *gorm.DB
	Auth         *controllers.AuthController
	Users        *controllers.UserController
	Meals        *controllers.MealController
	History      *controllers.HistoryController
	Goals        *controllers.GoalController
	Subscription *controllers.SubscriptionController
	Realtime     *controllers.RealtimeController
	Devices      *controllers.DeviceController
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.Default()

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", d.Auth.Register)
		auth.POST("/login", d.Auth.Login)
	}

	api := r.Group("/")
	api.Use(middlewares.AuthMiddleware(d.DB))
	{
		api.POST("/auth/logout", d.Auth.Logout)

		api.GET("/user/profile", d.Users.GetProfile)
		api.PUT("/user/profile", d.Users.UpdateProfile)

		api.GET("/meals/today", d.Meals.Today)
		api.POST("/meals", d.Meals.LogMeal)
		api.DELETE("/meals/:id", d.Meals.DeleteMeal)

		api.GET("/history/meals", d.History.MealsByDate)
		api.POST("/history/preload", d.History.Preload)
		api.GET("/history/summary", d.History.WeeklySummary)

		api.GET("/goals", d.Goals.GetGoals)
		api.PUT("/goals", d.Goals.UpdateGoals)

		api.GET("/subscription/status", d.Subscription.Status)
		api.POST("/subscription/purchase", d.Subscription.Purchase)
		api.POST("/subscription/restore", d.Subscription.Restore)
		api.POST("/subscription/reset", d.Subscription.Reset)

		api.GET("/ws/events", d.Realtime.EventsWS)
		api.POST("/devices", d.Devices.Register)
		api.POST("/devices/notifications/toggle", d.Devices.ToggleNotifications)
	}

	return r
}
