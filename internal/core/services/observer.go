package services

import (
	"time"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driven"
)

// nopObserver discards every measurement.
type nopObserver struct{}

var _ driven.Observer = nopObserver{}

func (nopObserver) RelationEnriched(domain.Entity, domain.Status, time.Duration) {}
func (nopObserver) EnrichmentFailed(domain.Entity, error)                        {}
func (nopObserver) ResolverBatch(string, int)                                    {}
func (nopObserver) SnapshotDelivered(domain.Entity)                              {}

func observerOrNop(o driven.Observer) driven.Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}
