package handler

import (
	"net/http"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/dto"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/service"

	"github.com/gin-gonic/gin"
)

type ObrasHandler struct {
	svc    service.ObraService
	partes service.ParteDiariaService
}

func NewObrasHandler(svc service.ObraService, partes service.ParteDiariaService) *ObrasHandler {
	return &ObrasHandler{svc: svc, partes: partes}
}

func (h *ObrasHandler) List(c *gin.Context) {
	obras, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, obras)
}

func (h *ObrasHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	obra, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, obra)
}

// GetByQRCode resolves the token read from a site's QR poster.
func (h *ObrasHandler) GetByQRCode(c *gin.Context) {
	obra, err := h.svc.GetByQRCode(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, obra)
}

func (h *ObrasHandler) Create(c *gin.Context) {
	var req dto.CreateObraRequest
	if !bindAndValidate(c, &req) {
		return
	}
	obra, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, obra)
}

func (h *ObrasHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateObraRequest
	if !bindAndValidate(c, &req) {
		return
	}
	obra, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, obra)
}

func (h *ObrasHandler) PartesDiarias(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	partes, err := h.partes.ListByObra(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, partes)
}
