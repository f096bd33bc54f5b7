package api

import "github.com/gin-gonic/gin"

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.GET("/assumptions", handler.GetAssumptions)

		api.POST("/analyze", handler.Analyze)
		api.POST("/analyze/batch", handler.AnalyzeBatch)

		api.GET("/analyses", handler.ListAnalyses)
		api.GET("/analyses/:id", handler.GetAnalysis)
		api.POST("/analyses/:id/matches", handler.MatchBuyers)

		api.GET("/properties/:id", handler.GetProperty)

		api.GET("/buyers", handler.ListBuyers)
		api.POST("/buyers", handler.CreateBuyer)
		api.GET("/buyers/:id/areas", handler.GetBuyerAreas)
		api.PUT("/buyers/:id/areas", handler.PutBuyerAreas)

		api.GET("/markets", handler.ListMarkets)
		api.GET("/markets/:state", handler.GetMarket)
		api.PUT("/markets/:state", handler.PutMarket)
		api.GET("/markets/:state/:city", handler.GetMarket)
		api.PUT("/markets/:state/:city", handler.PutMarket)
	}
}
