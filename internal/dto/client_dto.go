package dto

type CreateClientRequest struct {
	FirstName string  `json:"firstName" validate:"required,max=80"`
	LastName  string  `json:"lastName"  validate:"max=80"`
	Phone     string  `json:"phone"     validate:"required,min=5,max=30"`
	Email     *string `json:"email"     validate:"omitempty,email"`
}

type ClientResponse struct {
	ID         string  `json:"id"`
	BusinessID string  `json:"businessId"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Phone      string  `json:"phone"`
	Email      *string `json:"email"`
}
