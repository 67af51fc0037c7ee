/*
Copyright © 2025 caselens
*/
package cmd

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/caselens/casefile-be/handler"
	"github.com/caselens/casefile-be/middleware"
	"github.com/caselens/casefile-be/service"
	"github.com/caselens/casefile-be/types"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the API server",
	Long:  `Starts the HTTP server that serves document ingestion and case chat.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := buildApp(cfgFile)
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}

		wsService := service.NewWebSocketService(a.chatService, a.logger)

		corsHandler := handler.NewCorsHandler()
		loginHandler := handler.NewLoginHandler(a.userService)
		userHandler := handler.NewUserHandler(a.userService)
		caseHandler := handler.NewCaseHandler(a.cases, a.financial)
		uploadHandler := handler.NewUploadHandler(a.documentService)
		documentHandler := handler.NewDocumentHandler(a.documentService)
		chatHandler := handler.NewChatHandler(a.chatService)
		searchHandler := handler.NewSearchHandler(a.ragService)

		router := gin.Default()
		router.Use(corsHandler.CorsMiddleware)

		apiV1 := router.Group("/api/v1")
		apiV1.POST("/login", loginHandler.HandleLogin)

		authed := apiV1.Group("/")
		authed.Use(middleware.JwtMiddleware())
		{
			authed.POST("/cases", caseHandler.HandleCreate)
			authed.GET("/cases", caseHandler.HandleList)
			authed.GET("/cases/:id", caseHandler.HandleGet)
			authed.PUT("/cases/:id", caseHandler.HandleUpdate)
			authed.GET("/cases/:id/transactions", caseHandler.HandleTransactions)

			authed.POST("/documents", uploadHandler.HandleUpload)
			authed.GET("/documents", documentHandler.HandleList)
			authed.GET("/documents/:id", documentHandler.HandleGet)
			authed.PATCH("/documents/:id", documentHandler.HandleUpdate)
			authed.DELETE("/documents/:id", documentHandler.HandleDelete)

			authed.POST("/conversations", chatHandler.HandleCreateConversation)
			authed.GET("/conversations", chatHandler.HandleListConversations)
			authed.GET("/conversations/:id/messages", chatHandler.HandleHistory)
			authed.DELETE("/conversations/:id", chatHandler.HandleDeleteConversation)
			authed.POST("/conversations/:id/messages", chatHandler.HandleSendMessage)
			authed.POST("/conversations/:id/messages/stream", chatHandler.HandleStreamMessage)

			authed.POST("/search", searchHandler.HandleSearch)
		}

		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(middleware.JwtMiddleware(), middleware.RequireRole(types.USER_ROLE_ADMIN))
		{
			adminRoutes.POST("/users", userHandler.HandleCreateUser)
		}

		router.GET("/ws/chat", gin.WrapF(wsService.HandleChat))

		a.logger.Infow("starting server", "port", a.cfg.Port)
		if err := router.Run(":" + a.cfg.Port); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
