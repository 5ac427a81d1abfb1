package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/dskvich/simba-ai/pkg/domain"
)

// Keyword is a deterministic classifier: the first routable specialist, in registry order,
// with a keyword contained in the message wins.
type Keyword struct {
	specialists SpecialistLister
}

func NewKeyword(specialists SpecialistLister) *Keyword {
	return &Keyword{specialists: specialists}
}

func (c *Keyword) Classify(_ context.Context, message string) domain.Classification {
	m := strings.ToLower(message)

	for _, s := range c.specialists.Routable() {
		for _, kw := range s.Keywords {
			if strings.Contains(m, strings.ToLower(kw)) {
				return domain.Classification{
					Specialist: s.Key,
					Reason:     fmt.Sprintf("Mentions %q", kw),
				}
			}
		}
	}

	return general()
}
