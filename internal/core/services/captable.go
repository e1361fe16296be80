package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driving"
	"github.com/custodia-labs/charterbook/internal/logger"
)

// Ensure CapTableService implements the interface.
var _ driving.CapTableService = (*CapTableService)(nil)

// equityEntities are the relations that hold shares, in cap table order.
var equityEntities = []domain.Entity{
	domain.EntityCommon,
	domain.EntityPreferred,
	domain.EntityOption,
	domain.EntitySafe,
}

// CapTableService aggregates equity relations into a cap table.
type CapTableService struct {
	relations driving.RelationService
	settings  domain.CapTableSettings
}

// NewCapTableService creates a new cap table service.
func NewCapTableService(relations driving.RelationService, settings domain.CapTableSettings) *CapTableService {
	return &CapTableService{relations: relations, settings: settings}
}

// Get lists every shareholder and sums their holdings.
func (s *CapTableService) Get(ctx context.Context) (*domain.CapTable, error) {
	var holders []domain.Shareholder
	for _, entity := range equityEntities {
		snap, err := s.relations.List(ctx, entity, domain.Query{})
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", entity, err)
		}
		class, _ := domain.ShareClassOf(entity)
		for _, item := range snap.Items {
			if item.Err != nil {
				logger.Warn("cap table skips %s/%s: %v", entity, item.ID, item.Err)
				continue
			}
			holders = append(holders, shareholder(item.ID, class, item.Data))
		}
	}
	return BuildCapTable(holders, s.settings), nil
}

func shareholder(id string, class domain.ShareClass, r *domain.EnrichedRelation) domain.Shareholder {
	h := domain.Shareholder{ID: id, Class: class, Party: r.Party}
	if r.Shares != nil {
		h.Shares = float64(r.Shares.Value)
	}
	if r.Investment != nil {
		h.Investment = float64(r.Investment.Value)
	}
	return h
}

// BuildCapTable sums shareholders. The option pool and authorized share
// count come from settings since no relation records them.
func BuildCapTable(holders []domain.Shareholder, settings domain.CapTableSettings) *domain.CapTable {
	var total, funding, common, preferred, options decimal.Decimal
	for _, h := range holders {
		shares := decimal.NewFromFloat(h.Shares)
		total = total.Add(shares)
		funding = funding.Add(decimal.NewFromFloat(h.Investment))
		switch h.Class {
		case domain.ShareClassCommon:
			common = common.Add(shares)
		case domain.ShareClassPreferred:
			preferred = preferred.Add(shares)
		case domain.ShareClassOption:
			options = options.Add(shares)
		}
	}

	pool := decimal.NewFromFloat(settings.OptionPool)
	if holders == nil {
		holders = []domain.Shareholder{}
	}
	return &domain.CapTable{
		OptionPool:       settings.OptionPool,
		AuthorizedShares: settings.AuthorizedShares,
		CommonShares:     common.InexactFloat64(),
		OptionShares:     options.InexactFloat64(),
		OptionRemaining:  pool.Sub(options).InexactFloat64(),
		PreferredShares:  preferred.InexactFloat64(),
		FullyDiluted:     common.Add(preferred).Add(pool).InexactFloat64(),
		TotalShares:      total.InexactFloat64(),
		TotalFunding:     funding.InexactFloat64(),
		Shareholders:     holders,
	}
}
