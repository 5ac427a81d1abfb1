package specialist

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

//go:embed specialists.yaml
var builtin []byte

// Registry is a read-only lookup of specialists by key.
type Registry struct {
	byKey map[string]domain.Specialist
	order []string
}

// NewRegistry loads the built-in specialists.
func NewRegistry() (*Registry, error) {
	return Parse(builtin)
}

func Parse(data []byte) (*Registry, error) {
	var specialists []domain.Specialist
	if err := yaml.Unmarshal(data, &specialists); err != nil {
		return nil, fmt.Errorf("parsing specialists: %w", err)
	}

	r := &Registry{byKey: make(map[string]domain.Specialist, len(specialists))}
	for _, s := range specialists {
		s.Key = strings.TrimSpace(s.Key)
		if err := validate(s); err != nil {
			return nil, err
		}
		if _, dup := r.byKey[s.Key]; dup {
			return nil, fmt.Errorf("duplicate specialist %q", s.Key)
		}
		r.byKey[s.Key] = s
		r.order = append(r.order, s.Key)
	}

	if _, ok := r.byKey[domain.SpecialistDefault]; !ok {
		return nil, errors.New("registry has no default specialist")
	}

	return r, nil
}

func validate(s domain.Specialist) error {
	switch {
	case s.Key == "":
		return errors.New("specialist key cannot be empty")
	case s.Key == domain.SpecialistSmart:
		return fmt.Errorf("specialist key %q is reserved", s.Key)
	case s.Temperature < 0 || s.Temperature > 1:
		return fmt.Errorf("specialist %q: temperature %.2f out of [0,1]", s.Key, s.Temperature)
	case s.MaxTokens <= 0:
		return fmt.Errorf("specialist %q: max tokens must be positive", s.Key)
	case strings.TrimSpace(s.SystemPrompt) == "":
		return fmt.Errorf("specialist %q: empty system prompt", s.Key)
	}
	return nil
}

func (r *Registry) Get(key string) (domain.Specialist, bool) {
	s, ok := r.byKey[key]
	return s, ok
}

// Resolve returns the specialist for key, or the default one when key is unknown.
func (r *Registry) Resolve(key string) domain.Specialist {
	if s, ok := r.byKey[key]; ok {
		return s
	}
	return r.byKey[domain.SpecialistDefault]
}

// Exposed lists the specialists users may pick, in registry order.
func (r *Registry) Exposed() []domain.Specialist {
	return r.filter(func(s domain.Specialist) bool { return !s.Internal })
}

// Routable lists the specialists a classifier may choose, in priority order.
func (r *Registry) Routable() []domain.Specialist {
	return r.filter(func(s domain.Specialist) bool { return s.Routable && !s.Internal })
}

func (r *Registry) IsExposed(key string) bool {
	s, ok := r.byKey[key]
	return ok && !s.Internal
}

func (r *Registry) filter(keep func(domain.Specialist) bool) []domain.Specialist {
	all := lo.Map(r.order, func(key string, _ int) domain.Specialist { return r.byKey[key] })
	return lo.Filter(all, func(s domain.Specialist, _ int) bool { return keep(s) })
}

// FormatReply prefixes text with the emoji of the specialist that produced it.
func (r *Registry) FormatReply(specialistKey, text string) string {
	return r.Resolve(specialistKey).Emoji + " " + text
}
