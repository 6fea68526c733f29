package types

// Form payloads, filled from r.PostForm by the handlers and checked with validator.

type RegisterRequest struct {
	Email    string `validate:"required,email,max=120"`
	Password string `validate:"required,min=8,max=72"`
	Name     string `validate:"required,max=80"`
}

type LoginRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	Next     string
}

type CreateProposalRequest struct {
	Description string `validate:"max=2000"`
	Date        string
	Location    string `validate:"max=200"`
}

type SuggestionRequest struct {
	Date     string `validate:"required"`
	Location string `validate:"required,max=200"`
}

type FinalizeRequest struct {
	SuggestionID uint `validate:"required,gt=0"`
}

type RSVPRequest struct {
	Status string
	Next   string
}
