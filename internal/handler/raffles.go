package handler

import (
	"net/http"

	"rifapos/internal/dto"
	"rifapos/internal/service"

	"github.com/gin-gonic/gin"
)

type RafflesHandler struct{ svc service.RaffleService }

func NewRafflesHandler(svc service.RaffleService) *RafflesHandler {
	return &RafflesHandler{svc: svc}
}

// Create godoc
// @Summary      Create a raffle
// @Tags         raffles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.CreateRaffleRequest true "Raffle"
// @Success      201  {object} dto.RaffleResponse
// @Failure      400  {object} apierror.APIError
// @Router       /raffles [post]
func (h *RafflesHandler) Create(c *gin.Context) {
	var req dto.CreateRaffleRequest
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

// Get godoc
// @Summary      Get a raffle
// @Tags         raffles
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Raffle UUID"
// @Success      200 {object} dto.RaffleResponse
// @Failure      404 {object} apierror.APIError
// @Router       /raffles/{id} [get]
func (h *RafflesHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), caller(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListTickets godoc
// @Summary      List a raffle's tickets
// @Tags         raffles
// @Produce      json
// @Security     BearerAuth
// @Param        id  path    string true "Raffle UUID"
// @Success      200 {array} dto.TicketResponse
// @Router       /raffles/{id}/tickets [get]
func (h *RafflesHandler) ListTickets(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListTickets(c.Request.Context(), caller(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Draw godoc
// @Summary      Draw the winner of a place
// @Description  Draws drawCriteria tickets without replacement; the last one wins. Place 1 finishes the raffle.
// @Tags         raffles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string          true  "Raffle UUID"
// @Param        body body     dto.DrawRequest false "Place (default 1)"
// @Success      200  {object} dto.DrawResponse
// @Failure      400  {object} apierror.APIError "No eligible tickets"
// @Failure      404  {object} apierror.APIError
// @Router       /raffles/{id}/draw [post]
func (h *RafflesHandler) Draw(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.DrawRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Draw(c.Request.Context(), caller(c), id, req.Place)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateBatch godoc
// @Summary      Backfill tickets from historical sales
// @Description  Idempotent per sale: only missing tickets are issued.
// @Tags         raffles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                   true "Raffle UUID"
// @Param        body body     dto.GenerateBatchRequest true "Date range"
// @Success      200  {object} dto.GenerateBatchResponse
// @Failure      400  {object} apierror.APIError
// @Router       /raffles/{id}/generate-batch [post]
func (h *RafflesHandler) GenerateBatch(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.GenerateBatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.GenerateBatch(c.Request.Context(), caller(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
