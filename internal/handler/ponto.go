package handler

import (
	"net/http"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/dto"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/middleware"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/service"

	"github.com/gin-gonic/gin"
)

type PontoHandler struct{ svc service.PontoService }

func NewPontoHandler(svc service.PontoService) *PontoHandler { return &PontoHandler{svc: svc} }

func (h *PontoHandler) List(c *gin.Context) {
	registos, err := h.svc.List(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, registos)
}

// Today renders null when the caller has no record for today.
func (h *PontoHandler) Today(c *gin.Context) {
	registo, err := h.svc.Today(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, registo)
}

func (h *PontoHandler) ClockIn(c *gin.Context) {
	var req dto.ClockInRequest
	if !bindAndValidate(c, &req) {
		return
	}
	registo, err := h.svc.ClockIn(c.Request.Context(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, registo)
}

func (h *PontoHandler) ClockOut(c *gin.Context) {
	var req dto.ClockOutRequest
	if !bindOptional(c, &req) {
		return
	}
	registo, err := h.svc.ClockOut(c.Request.Context(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, registo)
}
