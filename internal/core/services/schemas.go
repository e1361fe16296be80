package services

import (
	"time"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

// States a state corporation may be registered in.
var corporationStates = []string{"Delaware", "California", "Washington"}

var (
	fieldParty      = domain.Field{Name: domain.FieldParty, Kind: domain.FieldKindParty}
	fieldStartDate  = domain.Field{Name: domain.FieldStartDate, Kind: domain.FieldKindDate}
	fieldEndDate    = domain.Field{Name: domain.FieldEndDate, Kind: domain.FieldKindDate}
	fieldSalary     = domain.Field{Name: domain.FieldSalary, Kind: domain.FieldKindPrice}
	fieldInvestment = domain.Field{Name: domain.FieldInvestment, Kind: domain.FieldKindPrice}
	fieldSharePrice = domain.Field{Name: domain.FieldSharePrice, Kind: domain.FieldKindPrice}
	fieldValuation  = domain.Field{Name: domain.FieldValuation, Kind: domain.FieldKindPrice}
	fieldShares     = domain.Field{Name: domain.FieldShares, Kind: domain.FieldKindNumber}
	fieldPoolSize   = domain.Field{Name: domain.FieldPoolSize, Kind: domain.FieldKindNumber}
)

// DefaultDefinitions returns the built-in entities. The first role of each
// entity is its primary document.
func DefaultDefinitions() []Definition {
	personFields := func(extra ...domain.Field) []domain.Field {
		return append([]domain.Field{fieldParty, fieldStartDate, fieldEndDate}, extra...)
	}

	return []Definition{
		{Schema: &domain.Schema{
			Entity: domain.EntityState,
			Enrich: true,
			Fields: []domain.Field{
				{Name: domain.FieldState, Kind: domain.FieldKindEnum, Required: true, Enum: corporationStates},
				fieldStartDate, fieldEndDate,
			},
			Roles: []domain.Role{
				{Name: "license", DocType: domain.DocTypeBusinessLicense},
				{Name: "agent", DocType: domain.DocTypeRegisteredAgent},
				{Name: "taxId", DocType: domain.DocTypeTaxIDDocument},
			},
		}},
		{Schema: &domain.Schema{
			Entity: domain.EntityLocal,
			Enrich: true,
			Fields: []domain.Field{
				{Name: domain.FieldJurisdiction, Kind: domain.FieldKindString, Required: true},
				fieldStartDate, fieldEndDate,
			},
			Roles: []domain.Role{
				{Name: "license", DocType: domain.DocTypeBusinessLicense},
				{Name: "agent", DocType: domain.DocTypeRegisteredAgent},
			},
		}},
		{Schema: &domain.Schema{
			Entity: domain.EntityEmployee,
			Enrich: true,
			Fields: personFields(fieldSalary),
			Roles: []domain.Role{
				{Name: "offer", DocType: domain.DocTypeOfferLetter},
				{Name: "employment", DocType: domain.DocTypeEmploymentAgreement},
				{Name: "assignment", DocType: domain.DocTypeInventionAssignment},
			},
		}},
		{Schema: &domain.Schema{
			Entity: domain.EntityOfficer,
			Enrich: true,
			Fields: personFields(),
			Roles: []domain.Role{
				{Name: "consent", DocType: domain.DocTypeBoardConsent},
				{Name: "indemnification", DocType: domain.DocTypeIndemnificationAgreement},
			},
		}},
		{Schema: &domain.Schema{
			Entity: domain.EntityDirector,
			Enrich: true,
			Fields: personFields(),
			Roles: []domain.Role{
				{Name: "consent", DocType: domain.DocTypeStockholderConsent},
				{Name: "indemnification", DocType: domain.DocTypeIndemnificationAgreement},
			},
		}},
		{Schema: &domain.Schema{
			Entity: domain.EntityAdvisor,
			Enrich: true,
			Fields: personFields(),
			Roles: []domain.Role{
				{Name: "agreement", DocType: domain.DocTypeAdvisorAgreement},
				{Name: "consent", DocType: domain.DocTypeBoardConsent},
			},
		}},
		{Schema: &domain.Schema{
			Entity: domain.EntityContractor,
			Enrich: true,
			Fields: personFields(),
			Roles: []domain.Role{
				{Name: "agreement", DocType: domain.DocTypeContractorAgreement},
			},
		}},
		{Schema: &domain.Schema{
			Entity: domain.EntityCommon,
			Enrich: true,
			Fields: []domain.Field{fieldParty, fieldStartDate, fieldShares, fieldInvestment},
			Roles: []domain.Role{
				{Name: "purchase", DocType: domain.DocTypeCommonStockPurchase},
				{Name: "_83b", DocType: domain.DocTypeSection83BElection},
				{Name: "consent", DocType: domain.DocTypeBoardConsent},
			},
		}},
		{Schema: &domain.Schema{
			Entity: domain.EntityOption,
			Enrich: true,
			Fields: []domain.Field{fieldParty, fieldStartDate, fieldShares},
			Roles: []domain.Role{
				{Name: "grant", DocType: domain.DocTypeStockOptionGrant},
				{Name: "consent", DocType: domain.DocTypeBoardConsent},
			},
		}},
		{Schema: &domain.Schema{
			Entity: domain.EntitySafe,
			Enrich: true,
			Fields: []domain.Field{fieldParty, fieldStartDate, fieldInvestment},
			Roles: []domain.Role{
				{Name: "grant", DocType: domain.DocTypeSAFE},
				{Name: "consent", DocType: domain.DocTypeBoardConsent},
			},
		}},
		{Schema: &domain.Schema{
			Entity: domain.EntityPreferred,
			Fields: []domain.Field{fieldParty, fieldStartDate, fieldShares, fieldInvestment},
		}},
		{Schema: &domain.Schema{
			Entity: domain.EntityOptionPlan,
			Enrich: true,
			Fields: personFields(fieldPoolSize),
			Roles: []domain.Role{
				{Name: "plan", DocType: domain.DocTypeStockOptionPlan},
				{Name: "boardConsent", DocType: domain.DocTypeBoardConsent},
			},
		}},
		{Schema: &domain.Schema{
			Entity: domain.EntityFundraising,
			Enrich: true,
			Fields: []domain.Field{
				{Name: domain.FieldFundraisingRound, Kind: domain.FieldKindString, Required: true},
				fieldSharePrice, fieldStartDate, fieldShares,
			},
			Roles: []domain.Role{
				{Name: "voting", DocType: domain.DocTypeVotingAgreement},
				{Name: "refulsal", DocType: domain.DocTypeRightOfFirstRefusal},
				{Name: "legal", DocType: domain.DocTypeLegalOpinion},
				{Name: "investor", DocType: domain.DocTypeInvestorRightsAgreement},
				{Name: "consent", DocType: domain.DocTypeBoardConsent},
				{Name: "stockholder", DocType: domain.DocTypeStockholderConsent},
				{Name: "securities", DocType: domain.DocTypeSecuritiesLawFiling},
				{Name: "side", DocType: domain.DocTypeSideLetter},
				{Name: "articles", DocType: domain.DocTypeArticlesOfIncorporation},
				{Name: "forma", DocType: domain.DocTypeProFormaCapTable},
				{Name: "preferred", DocType: domain.DocTypePreferredStockPurchase},
			},
		}},
		{
			Schema: &domain.Schema{
				Entity:  domain.EntityValuation,
				Enrich:  true,
				Fields:  []domain.Field{fieldValuation, fieldStartDate},
				Derived: []string{domain.FieldEndDate},
				Roles: []domain.Role{
					{Name: "_409a", DocType: domain.DocType409AReport},
					{Name: "boardConsent", DocType: domain.DocTypeBoardConsent},
				},
			},
			Derive: deriveValuationExpiry,
		},
	}
}

// deriveValuationExpiry sets a valuation to expire one year after it starts.
func deriveValuationExpiry(r *domain.Relation) {
	if r.StartDate == nil {
		r.EndDate = nil
		return
	}
	r.EndDate = domain.Computed(addOneYear(r.StartDate.Value))
}

func addOneYear(t time.Time) time.Time {
	return t.AddDate(1, 0, 0)
}
