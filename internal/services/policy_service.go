package services

import (
	"fmt"

	"github.com/Dylansm37/guardfile/domain"
)

// PolicyServiceImpl implements domain.PolicyService
type PolicyServiceImpl struct {
	enforcer domain.CasbinEnforcer
}

// NewPolicyService creates a new policy service
func NewPolicyService(enforcer domain.CasbinEnforcer) domain.PolicyService {
	return &PolicyServiceImpl{enforcer: enforcer}
}

// AddPolicy implements domain.PolicyService
func (s *PolicyServiceImpl) AddPolicy(role, resource, action string) error {
	added, err := s.enforcer.AddPolicy(role, resource, action)
	if err != nil {
		return fmt.Errorf("failed to add policy: %w", err)
	}
	if !added {
		return nil
	}
	return s.enforcer.SavePolicy()
}

// RemovePolicy implements domain.PolicyService
func (s *PolicyServiceImpl) RemovePolicy(role, resource, action string) error {
	removed, err := s.enforcer.RemovePolicy(role, resource, action)
	if err != nil {
		return fmt.Errorf("failed to remove policy: %w", err)
	}
	if !removed {
		return nil
	}
	return s.enforcer.SavePolicy()
}

// CheckPermission implements domain.PolicyService
func (s *PolicyServiceImpl) CheckPermission(role, resource, action string) (bool, error) {
	return s.enforcer.Enforce(role, resource, action)
}

// GetPolicies implements domain.PolicyService
func (s *PolicyServiceImpl) GetPolicies() [][]string {
	policies, err := s.enforcer.GetPolicy()
	if err != nil {
		return [][]string{}
	}
	return policies
}
