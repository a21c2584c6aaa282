package service

import (
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/domain"
)

// modelCreated is the placeholder creation timestamp reported for every
// registered agent.
const modelCreated int64 = 1677610602

// ListModels returns every registered agent as a model entry, in
// registration order.
func (s *Service) ListModels() []domain.Model {
	entries := s.registry.List()
	models := make([]domain.Model, 0, len(entries))
	for _, e := range entries {
		models = append(models, domain.Model{
			ID:      e.ModelID,
			Object:  "model",
			Created: modelCreated,
			OwnedBy: "aws-bedrock",
		})
	}
	return models
}
