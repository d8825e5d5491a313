package main

import (
	"sync"

	"github.com/lychee-technology/schemata"
	"github.com/lychee-technology/schemata/factory"
	"go.uber.org/zap"
)

// validatorCache builds one Validator per definition on first use.
type validatorCache struct {
	mu         sync.RWMutex
	registry   schemata.DefinitionRegistry
	config     *schemata.Config
	validators map[string]schemata.Validator
}

func newValidatorCache(registry schemata.DefinitionRegistry, config *schemata.Config) *validatorCache {
	return &validatorCache{
		registry:   registry,
		config:     config,
		validators: make(map[string]schemata.Validator),
	}
}

func (c *validatorCache) get(name string) (schemata.Validator, error) {
	c.mu.RLock()
	v, ok := c.validators[name]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.validators[name]; ok {
		return v, nil
	}
	v, err := factory.NewValidatorFromRegistry(c.registry, name, c.config)
	if err != nil {
		return nil, err
	}
	c.validators[name] = v
	zap.S().Debugw("validator cached", "definition", name)
	return v, nil
}

func (c *validatorCache) names() []string {
	return c.registry.ListDefinitions()
}
