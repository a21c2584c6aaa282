// Package service orchestrates chat completion requests: policy gate,
// registry resolution, context collapse, backend invocation and relay.
package service

import (
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/adapter/agent"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/config"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/registry"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/repository"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/policy"
)

type Service struct {
	store        repository.Store
	invoker      agent.Invoker
	registry     *registry.Registry
	policyEngine *policy.Engine
	config       *config.Config
}

func New(store repository.Store, invoker agent.Invoker, reg *registry.Registry, policyEngine *policy.Engine, cfg *config.Config) *Service {
	return &Service{
		store:        store,
		invoker:      invoker,
		registry:     reg,
		policyEngine: policyEngine,
		config:       cfg,
	}
}
