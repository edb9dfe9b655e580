package service

import (
	"context"

	"rifapos/internal/apierror"
	"rifapos/internal/dto"
	"rifapos/internal/identity"
	"rifapos/internal/model"
	"rifapos/internal/repository"

	"github.com/google/uuid"
)

type ClientService interface {
	Create(ctx context.Context, who identity.Identity, req dto.CreateClientRequest) (*dto.ClientResponse, error)
	Delete(ctx context.Context, who identity.Identity, clientID uuid.UUID) error
}

type clientService struct {
	clients repository.ClientRepository
}

func NewClientService(clients repository.ClientRepository) ClientService {
	return &clientService{clients: clients}
}

// Create fails with a DuplicateError on "phone" when a live client of the
// same business already uses the number.
func (s *clientService) Create(ctx context.Context, who identity.Identity, req dto.CreateClientRequest) (*dto.ClientResponse, error) {
	c := model.Client{
		BusinessID: who.BusinessID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Email:      req.Email,
	}
	if err := s.clients.Create(ctx, &c); err != nil {
		return nil, err
	}
	return &dto.ClientResponse{
		ID:         c.ID.String(),
		BusinessID: c.BusinessID.String(),
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Phone:      c.Phone,
		Email:      c.Email,
	}, nil
}

func (s *clientService) Delete(ctx context.Context, who identity.Identity, clientID uuid.UUID) error {
	c, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return err
	}
	if c.BusinessID != who.BusinessID {
		return apierror.NewAccessDenied("client belongs to another business")
	}
	return s.clients.SoftDelete(ctx, clientID)
}
