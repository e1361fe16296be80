package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmployeeSchema() *Schema {
	return &Schema{
		Entity: EntityEmployee,
		Enrich: true,
		Fields: []Field{
			{Name: FieldParty, Kind: FieldKindParty, Required: true},
			{Name: FieldStartDate, Kind: FieldKindDate},
			{Name: FieldEndDate, Kind: FieldKindDate},
			{Name: FieldSalary, Kind: FieldKindPrice},
			{Name: FieldState, Kind: FieldKindEnum, Enum: []string{"CA", "DE"}},
		},
		Roles: []Role{
			{Name: "offerLetter", DocType: DocTypeOfferLetter},
			{Name: "ciiaa", DocType: DocTypeInventionAssignment},
		},
	}
}

func TestSchema_Check(t *testing.T) {
	assert.NoError(t, testEmployeeSchema().Check())

	tests := []struct {
		name   string
		mutate func(s *Schema)
	}{
		{"empty entity", func(s *Schema) { s.Entity = "" }},
		{"discriminated entity", func(s *Schema) { s.Discriminator = "kind" }},
		{"roles without enrichment", func(s *Schema) { s.Enrich = false }},
		{"union field", func(s *Schema) {
			s.Fields = append(s.Fields, Field{Name: "grant", Kind: FieldKindUnion, Discriminator: "kind"})
		}},
		{"unknown field", func(s *Schema) { s.Fields = append(s.Fields, Field{Name: "nickname", Kind: FieldKindString}) }},
		{"wrong kind", func(s *Schema) { s.Fields[1].Kind = FieldKindNumber }},
		{"empty enum", func(s *Schema) { s.Fields[4].Enum = nil }},
		{"duplicate field", func(s *Schema) { s.Fields = append(s.Fields, s.Fields[0]) }},
		{"derived field stored", func(s *Schema) { s.Derived = []string{FieldEndDate} }},
		{"contentless role", func(s *Schema) { s.Roles[0].DocType = DocTypeUncategorized }},
		{"role shadows field", func(s *Schema) { s.Roles[0].Name = FieldSalary }},
		{"role shadows reserved key", func(s *Schema) { s.Roles[0].Name = "status" }},
		{"duplicate role", func(s *Schema) { s.Roles[1].Name = s.Roles[0].Name }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testEmployeeSchema()
			tt.mutate(s)
			err := s.Check()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestSchema_ValidateEncodeRoundTrip(t *testing.T) {
	s := testEmployeeSchema()
	rec := Record{
		"docRefs":   []any{"org/acme/doc/offer", "org/acme/doc/ciiaa"},
		"party":     map[string]any{"name": "Ada", "email": "ada@example.com"},
		"startDate": map[string]any{"value": "2021-01-01T00:00:00Z", "type": "document", "sourceRef": "org/acme/doc/offer"},
		"salary":    map[string]any{"value": 120000.0, "type": "edited"},
		"state":     "CA",
	}

	r, err := s.Validate(rec)
	require.NoError(t, err)
	assert.Equal(t, "Ada", r.Party.Name)
	assert.Equal(t, Price(120000), r.Salary.Value)
	assert.Nil(t, r.EndDate)

	assert.Equal(t, rec, s.Encode(r))
}

func TestSchema_ValidateDropsUnknownKeys(t *testing.T) {
	s := testEmployeeSchema()
	r, err := s.Validate(Record{
		"docRefs":    []any{},
		"party":      map[string]any{"name": "Ada"},
		"isComplete": true,
		"offerLetter": map[string]any{
			"type": "MISSING",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, Record{"docRefs": []any{}, "party": map[string]any{"name": "Ada"}}, s.Encode(r))
}

func TestSchema_ValidateErrors(t *testing.T) {
	s := testEmployeeSchema()
	base := func() Record {
		return Record{"docRefs": []any{"doc/a"}, "party": map[string]any{"name": "Ada"}}
	}

	tests := []struct {
		name   string
		mutate func(r Record)
		field  string
	}{
		{"missing docRefs", func(r Record) { delete(r, "docRefs") }, "docRefs"},
		{"bad ref", func(r Record) { r["docRefs"] = []any{"nocollection"} }, "docRefs[0]"},
		{"missing required", func(r Record) { delete(r, "party") }, "party"},
		{"enum outside values", func(r Record) { r["state"] = "TX" }, "state"},
		{"empty string", func(r Record) { r["state"] = "" }, "state"},
		{"bad metadata", func(r Record) { r["salary"] = map[string]any{"value": "lots", "type": "edited"} }, "salary.value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := base()
			tt.mutate(rec)
			_, err := s.Validate(rec)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "employee", verr.Entity)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestSchema_CoercePartial(t *testing.T) {
	s := testEmployeeSchema()
	s.Fields = s.Fields[:4]
	s.Derived = []string{FieldState}

	t.Run("drops derived role and unknown keys", func(t *testing.T) {
		patch, err := s.CoercePartial(Record{
			"salary":      map[string]any{"value": 130000.0, "string": "$130,000.00"},
			"state":       "CA",
			"offerLetter": map[string]any{"type": "OFFER_LETTER"},
			"status":      "Current",
			"party":       map[string]any{"email": "ada@example.com"},
		})
		require.NoError(t, err)
		assert.Equal(t, Record{
			"salary": map[string]any{"value": 130000.0},
			"party":  map[string]any{"email": "ada@example.com"},
		}, patch)
	})

	t.Run("null clears optional field", func(t *testing.T) {
		patch, err := s.CoercePartial(Record{"endDate": nil})
		require.NoError(t, err)
		assert.Equal(t, Record{"endDate": nil}, patch)
	})

	t.Run("null on required field", func(t *testing.T) {
		_, err := s.CoercePartial(Record{"party": nil})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("normalises dates", func(t *testing.T) {
		patch, err := s.CoercePartial(Record{"startDate": map[string]any{"value": date(2022, 2, 2)}})
		require.NoError(t, err)
		assert.Equal(t, Record{"startDate": map[string]any{"value": "2022-02-02T00:00:00Z"}}, patch)
	})

	t.Run("rejects bad values", func(t *testing.T) {
		_, err := s.CoercePartial(Record{"salary": map[string]any{"value": "more"}})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = s.CoercePartial(Record{"docRefs": []any{"bad"}})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
