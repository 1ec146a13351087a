package handler

import (
	"net/http"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/dto"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/middleware"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/service"

	"github.com/gin-gonic/gin"
)

type PartesHandler struct{ svc service.ParteDiariaService }

func NewPartesHandler(svc service.ParteDiariaService) *PartesHandler {
	return &PartesHandler{svc: svc}
}

func (h *PartesHandler) List(c *gin.Context) {
	partes, err := h.svc.List(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, partes)
}

func (h *PartesHandler) Create(c *gin.Context) {
	var req dto.CreateParteDiariaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	parte, err := h.svc.Create(c.Request.Context(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, parte)
}
