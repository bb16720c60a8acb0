package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	AllowedOrigins []string
	Tokens         TokenParser
}

func SetupRouter(cfg RouterConfig, roomController *RoomController, userController *UserController, agentController *AgentController) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		config.AllowOrigins = cfg.AllowedOrigins
		config.AllowCredentials = true
	} else {
		config.AllowAllOrigins = true
	}
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	authed := RequireUser(cfg.Tokens)

	if userController != nil {
		users := api.Group("/users")
		users.POST("", userController.CreateUser)
		users.GET("/me", authed, userController.Me)
		users.PATCH("/me", authed, userController.UpdateMe)
		users.GET("/:userID", userController.GetUser)
	}

	if roomController != nil {
		rooms := api.Group("/rooms")
		rooms.GET("", roomController.ListRooms)
		rooms.POST("", authed, roomController.CreateRoom)
		rooms.GET("/:code", roomController.GetRoomByCode)
		rooms.POST("/:code/join", authed, roomController.JoinRoom)
		rooms.POST("/:code/leave", authed, roomController.LeaveRoom)
		rooms.GET("/:code/ws", roomController.Connect)
	}

	if agentController != nil {
		agents := api.Group("/agents")
		agents.GET("", agentController.ListProfiles)
		agents.POST("", authed, agentController.CreateProfile)
	}

	return router
}
