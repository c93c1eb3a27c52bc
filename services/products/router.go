package products

import "github.com/gin-gonic/gin"

// RegisterRoutes registra as rotas de produtos no engine
func RegisterRoutes(r gin.IRouter, h *ProductHandler) {
	products := r.Group("/products")
	{
		products.GET("", h.List)
		products.POST("", h.Create)
		products.PUT("/debit-stock", h.DebitStock)
		products.POST("/suggest-description", h.SuggestDescription)
		products.GET("/:id", h.Get)
		products.PUT("/:id", h.Update)
		products.DELETE("/:id", h.Delete)
		products.GET("/:id/movements", h.ListMovements)
	}
}
