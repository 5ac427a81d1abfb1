// Package classifier picks the specialist best suited to answer a user message.
package classifier

import (
	"context"

	"github.com/dskvich/simba-ai/pkg/domain"
)

const (
	ReasonGeneral  = "General conversation"
	ReasonFallback = "Fallback to general conversation"
	ReasonBestFit  = "Best match for your query"
)

// Classifier never fails: any problem resolves to the default specialist.
type Classifier interface {
	Classify(ctx context.Context, message string) domain.Classification
}

type SpecialistLister interface {
	Routable() []domain.Specialist
	Resolve(key string) domain.Specialist
}

func general() domain.Classification {
	return domain.Classification{Specialist: domain.SpecialistDefault, Reason: ReasonGeneral}
}

func fallback() domain.Classification {
	return domain.Classification{Specialist: domain.SpecialistDefault, Reason: ReasonFallback}
}
