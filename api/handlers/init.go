package handlers

import (
	"github.com/sendgrove/blastpipe/internal/repository"
	"github.com/sendgrove/blastpipe/services"
)

type APIHandlers struct {
	Campaigns    *CampaignsHandler
	Providers    *ProvidersHandler
	Templates    *TemplatesHandler
	Lists        *ListsHandler
	Suppressions *SuppressionsHandler
}

func InitHandlers(r *repository.Repositories, s *services.Services) *APIHandlers {
	return &APIHandlers{
		Campaigns:    NewCampaignsHandler(r, s.Dispatcher),
		Providers:    NewProvidersHandler(r, s.Vault),
		Templates:    NewTemplatesHandler(r),
		Lists:        NewListsHandler(r, s.FilterService),
		Suppressions: NewSuppressionsHandler(r),
	}
}
