package invoices

import "github.com/gin-gonic/gin"

// RegisterRoutes registra as rotas de notas fiscais no engine
func RegisterRoutes(r gin.IRouter, h *InvoiceHandler) {
	invoices := r.Group("/invoices")
	{
		invoices.GET("", h.List)
		invoices.POST("", h.Create)
		invoices.GET("/:id", h.Get)
		invoices.PUT("/:id", h.Update)
		invoices.DELETE("/:id", h.Delete)
		invoices.PUT("/:id/print", h.Print)
	}
}
