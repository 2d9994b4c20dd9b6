package api

import (
	"github.com/gin-gonic/gin"
	"github.com/nemopss/fin-track/logging"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/nemopss/fin-track/docs"
)

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handler, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(log, func(c *gin.Context) (string, bool) {
		id, ok := authUser(c)
		return id.String(), ok
	}))

	r.GET("/healthz", h.Health)
	r.POST("/register", h.Register)
	if h.authEnabled {
		r.POST("/login", h.Login)
	}

	protected := r.Group("/", h.AuthMiddleware())
	protected.POST("/getUser", h.GetUser)
	protected.POST("/addTransaction", h.AddTransaction)
	protected.POST("/getTransaction", h.GetTransactions)
	protected.POST("/getTransaction/:id", h.GetTransaction)
	protected.PUT("/updateTransaction/:id", h.UpdateTransaction)
	protected.POST("/deleteTransaction/:id", h.DeleteTransaction)
	protected.POST("/deleteMultipleTransactions", h.DeleteMultipleTransactions)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
