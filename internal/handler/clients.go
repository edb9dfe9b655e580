package handler

import (
	"net/http"

	"rifapos/internal/dto"
	"rifapos/internal/service"

	"github.com/gin-gonic/gin"
)

type ClientsHandler struct{ svc service.ClientService }

func NewClientsHandler(svc service.ClientService) *ClientsHandler {
	return &ClientsHandler{svc: svc}
}

// Create godoc
// @Summary      Register a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.CreateClientRequest true "Client"
// @Success      201  {object} dto.ClientResponse
// @Failure      409  {object} apierror.APIError "Phone already registered"
// @Router       /clients [post]
func (h *ClientsHandler) Create(c *gin.Context) {
	var req dto.CreateClientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), caller(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Delete godoc
// @Summary      Soft-delete a client
// @Tags         clients
// @Security     BearerAuth
// @Param        id path string true "Client UUID"
// @Success      204
// @Router       /clients/{id} [delete]
func (h *ClientsHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), caller(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
