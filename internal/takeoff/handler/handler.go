// Package handler exposes the takeoff exchange over HTTP.
package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/service"
)

// Handlers is the handler collection wired into the router.
type Handlers struct {
	Takeoff *TakeoffHandler
}

// NewHandlers creates the handler collection.
func NewHandlers(svc *service.TakeoffService, src service.DataSource, logger *zap.Logger) *Handlers {
	return &Handlers{
		Takeoff: NewTakeoffHandler(svc, src, logger),
	}
}

// RegisterRoutes attaches the API routes to the router group.
func RegisterRoutes(api *gin.RouterGroup, h *Handlers) {
	api.GET("/takeoff/info", h.Takeoff.GetInfo)
	api.POST("/takeoff/info", h.Takeoff.PostInfo)
	api.PATCH("/takeoff/info", h.Takeoff.PatchInfo)
	api.GET("/takeoff/report", h.Takeoff.GetReport)
	api.GET("/takeoff/export", h.Takeoff.Export)
}

// Response is the common response envelope.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success writes a 200 response.
func Success(c *gin.Context, data any) {
	c.JSON(200, Response{Code: 0, Message: "success", Data: data})
}

// Error writes an error response with the given HTTP status.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Code: status, Message: message})
}

// BadRequest writes a 400 response.
func BadRequest(c *gin.Context, message string) {
	Error(c, 400, message)
}

// InternalError writes a 500 response.
func InternalError(c *gin.Context, message string) {
	Error(c, 500, message)
}
