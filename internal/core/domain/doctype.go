package domain

import "fmt"

// DocType identifies the kind of a stored document.
type DocType string

// Contentful document types. These carry a party, dates and properties.
const (
	DocTypeAnnualReport             DocType = "ANNUAL_REPORT"
	DocTypeBusinessLicense          DocType = "BUSINESS_LICENSE"
	DocTypeRegisteredAgent          DocType = "REGISTERED_AGENT"
	DocTypeTaxIDDocument            DocType = "TAX_ID_DOCUMENT"
	DocTypeArticlesOfIncorporation  DocType = "ARTICLES_OF_INCORPORATION"
	DocTypeIncorporatorConsent      DocType = "INCORPORATOR_CONSENT"
	DocTypeCorporateBylaws          DocType = "CORPORATE_BYLAWS"
	DocTypeIRSEINAssignmentLetter   DocType = "IRS_EIN_ASSIGNMENT_LETTER"
	DocTypeLegalSettlement          DocType = "LEGAL_SETTLEMENT"
	DocTypeCertificateGoodStanding  DocType = "CERTIFICATE_GOOD_STANDING"
	DocTypeOtherCorporateFiling     DocType = "OTHER_CORPORATE_FILLING"
	DocTypeVotingAgreement          DocType = "VOTING_AGREEMENT"
	DocTypeRightOfFirstRefusal      DocType = "RIGHT_OF_FIRST_REFUSAL_AND_COSALE_AGREEMENT"
	DocTypeLegalOpinion             DocType = "LEGAL_OPINION"
	DocTypeInvestorRightsAgreement  DocType = "INVESTOR_RIGHTS_AGREEMENT"
	DocTypeSecuritiesLawFiling      DocType = "SECURITIES_LAW_FILING"
	DocTypePreferredStockPurchase   DocType = "PREFERRED_STOCK_PURCHASE_AGREEMENT"
	DocTypeSAFE                     DocType = "SIMPLE_AGREEMENT_FOR_FUTURE_EQUITY"
	DocTypeConvertibleNote          DocType = "CONVERTIBLE_NOTE"
	DocTypeSideLetter               DocType = "SIDE_LETTER"
	DocTypeCommonStockPurchase      DocType = "COMMON_STOCK_PURCHASE_AGREEMENT"
	DocTypeSection83BElection       DocType = "SECTION_83B_ELECTION_FORM"
	DocTypeStockOptionGrant         DocType = "STOCK_OPTION_GRANT"
	DocTypeStockholderConsent       DocType = "STOCKHOLDER_CONSENT"
	DocTypeContractorAgreement      DocType = "CONTRACTOR_AGREEMENT"
	DocTypeAdvisorAgreement         DocType = "ADVISOR_AGREEMENT"
	DocTypeInventionAssignment      DocType = "PROPRIETARY_INFORMATION_AND_INVENTION_ASSIGNMENT"
	DocTypeEmploymentAgreement      DocType = "EMPLOYMENT_AGREEMENT"
	DocTypeOfferLetter              DocType = "OFFER_LETTER"
	DocTypeIndemnificationAgreement DocType = "INDEMNIFICATION_AGREEMENT"
	DocTypeBoardConsent             DocType = "BOARD_CONSENT_AND_MINUTES"
	DocType409AReport               DocType = "_409A_REPORT"
	DocTypeStockOptionPlan          DocType = "STOCK_OPTION_PLAN"
	DocTypeProFormaCapTable         DocType = "PRO_FORMA_CAP_TABLE"
	DocTypeCertificateOfInsurance   DocType = "CERTIFICATE_OF_INSURANCE"
	DocTypeInsuranceAgreement       DocType = "INSURANCE_AGREEMENT"
	DocTypeOtherInsuranceDocument   DocType = "OTHER_INSURANCE_DOCUMENT"
	DocTypePatent                   DocType = "PATENT"
	DocTypeTrademark                DocType = "TRADEMARK"
	DocTypeCopyright                DocType = "COPYRIGHT"
	DocTypeDebtAgreement            DocType = "DEBT_AGREEMENT"
	DocType401KPlan                 DocType = "_401K_PLAN"
	DocTypeEmployeeHandbook         DocType = "EMPLOYEE_HANDBOOK"
	DocTypeCommuterBenefitAgreement DocType = "COMMUTER_BENEFIT_AGREEMENT"
	DocTypeHealthInsuranceAgreement DocType = "HEALTH_INSURANCE_AGREEMENT"
	DocTypeDentalPlanAgreement      DocType = "DENTAL_PLAN_AGREEMENT"
	DocTypeVisionPlanAgreement      DocType = "VISION_PLAN_AGREEMENT"
	DocTypeRealEstateLease          DocType = "REAL_ESTATE_LEASE"
	DocTypePurchasedRealEstate      DocType = "PURCHASED_REAL_ESTATE"
	DocTypeAuditorLetter            DocType = "AUDITOR_LETTER"
	DocTypeIncomeStatement          DocType = "INCOME_STATEMENT"
	DocTypeBalanceSheet             DocType = "BALANCE_SHEET"
	DocTypeOtherFinancialStatements DocType = "OTHER_FINANCIAL_STATEMENTS"
	DocTypeCustomerAgreement        DocType = "CUSTOMER_AGREEMENT"
	DocTypeVendorAgreement          DocType = "VENDOR_AGREEMENT"
	DocTypeMiscellaneous            DocType = "MISCELLANEOUS"
)

// Contentless document types. These are placeholders awaiting categorisation.
const (
	DocTypeUncategorized DocType = "UNCATEGORIZED"
	DocTypeProcessing    DocType = "PROCESSING"
	DocTypeDismissed     DocType = "DISMISSED"
)

// TypeLabels holds the human-readable names of a document type.
type TypeLabels struct {
	// Long is the full title, e.g. "Simple Agreement for Future Equity".
	Long string `json:"long"`

	// Short is the file-style label, e.g. "SAFE.pdf".
	Short string `json:"short"`
}

type docTypeEntry struct {
	docType     DocType
	labels      TypeLabels
	contentless bool
}

// docTypeTable is the registry in declaration order.
var docTypeTable = []docTypeEntry{
	{DocTypeAnnualReport, TypeLabels{"Annual Report and Entity Tax", "Report.pdf"}, false},
	{DocTypeBusinessLicense, TypeLabels{"Business License", "License.pdf"}, false},
	{DocTypeRegisteredAgent, TypeLabels{"Registered Agent", "Agent.pdf"}, false},
	{DocTypeTaxIDDocument, TypeLabels{"State and Local TAX ID Document", "Tax ID.pdf"}, false},
	{DocTypeArticlesOfIncorporation, TypeLabels{"Articles of Incorporation", "Articles"}, false},
	{DocTypeIncorporatorConsent, TypeLabels{"Incorporator Consent", "Incorporator.pdf"}, false},
	{DocTypeCorporateBylaws, TypeLabels{"Corporate Bylaws", "Bylaws.pdf"}, false},
	{DocTypeIRSEINAssignmentLetter, TypeLabels{"IRS EIN assignment Letter", "EIN Letter.pdf"}, false},
	{DocTypeLegalSettlement, TypeLabels{"Legal Settlement", "Settlement.pdf"}, false},
	{DocTypeCertificateGoodStanding, TypeLabels{"Certificate of Good Standing", "Good Standing.pdf"}, false},
	{DocTypeOtherCorporateFiling, TypeLabels{"Other Corporate Filling", "Filing.pdf"}, false},
	{DocTypeVotingAgreement, TypeLabels{"Voting Agreement", "Voting.pdf"}, false},
	{DocTypeRightOfFirstRefusal, TypeLabels{"Right of First Refusal and Cosale Agreement", "ROFR.pdf"}, false},
	{DocTypeLegalOpinion, TypeLabels{"Legal Opinion", "Opinion.pdf"}, false},
	{DocTypeInvestorRightsAgreement, TypeLabels{"Investor Rights Agreement", "Investor Right.pdf"}, false},
	{DocTypeSecuritiesLawFiling, TypeLabels{"Securities Law Filing", "Securities.pdf"}, false},
	{DocTypePreferredStockPurchase, TypeLabels{"Preferred Stock Purchase Agreement", "Preferred Purchase.pdf"}, false},
	{DocTypeSAFE, TypeLabels{"Simple Agreement for Future Equity", "SAFE.pdf"}, false},
	{DocTypeConvertibleNote, TypeLabels{"Convertible Note", "Convertible.pdf"}, false},
	{DocTypeSideLetter, TypeLabels{"Side Letter", "Side.pdf"}, false},
	{DocTypeCommonStockPurchase, TypeLabels{"Common Stock Purchase Agreement", "Common.pdf"}, false},
	{DocTypeSection83BElection, TypeLabels{"Section 83(B) Election Form", "83B.pdf"}, false},
	{DocTypeStockOptionGrant, TypeLabels{"Stock Option Grant", "Option Grant.pdf"}, false},
	{DocTypeStockholderConsent, TypeLabels{"Stockholder Consent", "Stockholder Consent.pdf"}, false},
	{DocTypeContractorAgreement, TypeLabels{"Contractor Agreement", "Contractor.pdf"}, false},
	{DocTypeAdvisorAgreement, TypeLabels{"Advisor Agreement", "Advisor.pdf"}, false},
	{DocTypeInventionAssignment, TypeLabels{"Proprietary Information and Invention Assignment", "PIIA.pdf"}, false},
	{DocTypeEmploymentAgreement, TypeLabels{"Employment Agreement", "Employment.pdf"}, false},
	{DocTypeOfferLetter, TypeLabels{"Offer Letter", "Offer.pdf"}, false},
	{DocTypeIndemnificationAgreement, TypeLabels{"Indemnification Agreement", "Indemnification.pdf"}, false},
	{DocTypeBoardConsent, TypeLabels{"Board Consent and Minutes", "Board Consent.pdf"}, false},
	{DocType409AReport, TypeLabels{"409(A) Valuation report", "409A.pdf"}, false},
	{DocTypeStockOptionPlan, TypeLabels{"Stock Option Plan", "Option Plan.pdf"}, false},
	{DocTypeProFormaCapTable, TypeLabels{"Pro-forma Cap Table", "Cap Table.pdf"}, false},
	{DocTypeCertificateOfInsurance, TypeLabels{"Certificate of Insurance", "COI.pdf"}, false},
	{DocTypeInsuranceAgreement, TypeLabels{"Insurance Agreement", "Insurance.pdf"}, false},
	{DocTypeOtherInsuranceDocument, TypeLabels{"Other Insurance Document", "Other Insurance.pdf"}, false},
	{DocTypePatent, TypeLabels{"Patent Filing", "Patent.pdf"}, false},
	{DocTypeTrademark, TypeLabels{"Trademark Filing", "Trademark.pdf"}, false},
	{DocTypeCopyright, TypeLabels{"Copyright Filing", "Copyright.pdf"}, false},
	{DocTypeDebtAgreement, TypeLabels{"Debt Agreement", "Debt.pdf"}, false},
	{DocType401KPlan, TypeLabels{"401(K) Plan", "401K.pdf"}, false},
	{DocTypeEmployeeHandbook, TypeLabels{"Employee Handbook", "Handbook.pdf"}, false},
	{DocTypeCommuterBenefitAgreement, TypeLabels{"Commuter Benefit Agreement", "Commuter.pdf"}, false},
	{DocTypeHealthInsuranceAgreement, TypeLabels{"Health Insurance Agreement", "Health.pdf"}, false},
	{DocTypeDentalPlanAgreement, TypeLabels{"Dental Plan Agreement", "Dental.pdf"}, false},
	{DocTypeVisionPlanAgreement, TypeLabels{"Vision Plan Agreement", "Vision.pdf"}, false},
	{DocTypeRealEstateLease, TypeLabels{"Real Estate Lease", "RE Lease.pdf"}, false},
	{DocTypePurchasedRealEstate, TypeLabels{"Real Estate Purchase Agreement.pdf", "RE Purchase.pdf"}, false},
	{DocTypeAuditorLetter, TypeLabels{"Auditor Letter", "Auditor.pdf"}, false},
	{DocTypeIncomeStatement, TypeLabels{"Income Statement", "Income.pdf"}, false},
	{DocTypeBalanceSheet, TypeLabels{"Balance Sheet", "Balance.pdf"}, false},
	{DocTypeOtherFinancialStatements, TypeLabels{"Other Financial Statements", "Other Financials.pdf"}, false},
	{DocTypeCustomerAgreement, TypeLabels{"Customer Agreement", "Customer.pdf"}, false},
	{DocTypeVendorAgreement, TypeLabels{"Vendor Agreement", "Vendor.pdf"}, false},
	{DocTypeMiscellaneous, TypeLabels{"Miscellaneous", "Misc.pdf"}, false},

	{DocTypeUncategorized, TypeLabels{"Uncategorized", "Uncategorized.pdf"}, true},
	{DocTypeProcessing, TypeLabels{"Processing", "Processing.pdf"}, true},
	{DocTypeDismissed, TypeLabels{"Dismissed", "Dismissed.pdf"}, true},
}

var docTypeIndex = func() map[DocType]docTypeEntry {
	index := make(map[DocType]docTypeEntry, len(docTypeTable))
	for _, entry := range docTypeTable {
		index[entry.docType] = entry
	}
	return index
}()

// IsValid returns true if the type is registered.
func (t DocType) IsValid() bool {
	_, ok := docTypeIndex[t]
	return ok
}

// IsContentful reports whether documents of this type carry party, dates and
// properties. Unregistered types are not contentful.
func (t DocType) IsContentful() bool {
	entry, ok := docTypeIndex[t]
	return ok && !entry.contentless
}

// Describe returns the label pair for the type.
// It panics for unregistered types; callers validate input first.
func (t DocType) Describe() TypeLabels {
	entry, ok := docTypeIndex[t]
	if !ok {
		panic(fmt.Sprintf("domain: unknown document type %q", string(t)))
	}
	return entry.labels
}

// String returns the type identifier.
func (t DocType) String() string {
	return string(t)
}

// DocTypes returns every registered type in declaration order.
func DocTypes() []DocType {
	types := make([]DocType, len(docTypeTable))
	for i, entry := range docTypeTable {
		types[i] = entry.docType
	}
	return types
}

// ContentfulDocTypes returns the contentful types in declaration order.
func ContentfulDocTypes() []DocType {
	var types []DocType
	for _, entry := range docTypeTable {
		if !entry.contentless {
			types = append(types, entry.docType)
		}
	}
	return types
}

// ContentlessDocTypes returns the placeholder types in declaration order.
func ContentlessDocTypes() []DocType {
	var types []DocType
	for _, entry := range docTypeTable {
		if entry.contentless {
			types = append(types, entry.docType)
		}
	}
	return types
}
