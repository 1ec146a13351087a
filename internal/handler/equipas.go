package handler

import (
	"net/http"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/dto"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/middleware"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/service"

	"github.com/gin-gonic/gin"
)

type EquipasHandler struct{ svc service.EquipaService }

func NewEquipasHandler(svc service.EquipaService) *EquipasHandler {
	return &EquipasHandler{svc: svc}
}

func (h *EquipasHandler) List(c *gin.Context) {
	equipas, err := h.svc.List(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, equipas)
}

func (h *EquipasHandler) Create(c *gin.Context) {
	var req dto.CreateEquipaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	equipa, err := h.svc.Create(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, equipa)
}

func (h *EquipasHandler) AddMembro(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AddMembroRequest
	if !bindAndValidate(c, &req) {
		return
	}
	membro, err := h.svc.AddMembro(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, membro)
}

func (h *EquipasHandler) RemoveMembro(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.RemoveMembro(c.Request.Context(), id, c.Param("userId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
