package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Search     *SearchHandler
	Orders     *OrderHandler
	Sessions   *SessionHandler
	AdminToken string
}

// NewRouter builds the storefront API. Infrastructure routes (health, docs)
// are mounted by the bootstrap package.
func NewRouter(h Handlers, log logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(log), RequestLogger(log))

	v1 := router.Group("/api/v1")
	h.Search.Register(v1)
	h.Orders.Register(v1)
	h.Sessions.Register(v1)

	admin := router.Group("/admin", AdminAuth(h.AdminToken))
	h.Sessions.RegisterAdmin(admin)
	h.Orders.RegisterAdmin(admin)

	return router
}
