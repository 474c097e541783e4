package api

import (
	"net/http"

	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/Domenick1991/flightshop/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	service flights.SearchUseCase
}

func NewSearchHandler(service flights.SearchUseCase) *SearchHandler {
	return &SearchHandler{service: service}
}

func (h *SearchHandler) Register(router *gin.RouterGroup) {
	router.POST("/search", h.search)
}

// search godoc
// @Summary  Search flights and open a booking session
// @Accept   json
// @Produce  json
// @Param    request body domain.SearchParams true "search parameters"
// @Success  200 {object} flights.SearchResult
// @Failure  400,404,502 {object} map[string]string
// @Router   /api/v1/search [post]
func (h *SearchHandler) search(c *gin.Context) {
	var params domain.SearchParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Search(c.Request.Context(), params, &domain.ClientInfo{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
