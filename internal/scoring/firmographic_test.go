package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"leadflow/internal/prospect/models"
)

func fullRecord() models.Record {
	return models.Record{
		Email:           "jane@acme.io",
		FirstName:       "Jane",
		LastName:        "Doe",
		CompanyName:     "Acme",
		JobTitle:        "VP Sales",
		CompanySize:     "51-200",
		CompanyIndustry: "Technology",
		Location:        "Berlin, Germany",
	}
}

func TestFirmographic(t *testing.T) {
	t.Run("every attribute matches", func(t *testing.T) {
		c := &Criteria{
			CompanySizes: []string{"51-200"},
			Industries:   []string{"technology"},
			Locations:    []string{"Germany"},
			JobTitles:    []string{"Sales"},
		}
		assert.Equal(t, 30+25+20+15+10, Firmographic(fullRecord(), c))
	})

	t.Run("no criteria scores half weight for present attributes", func(t *testing.T) {
		assert.Equal(t, 15+12+10+7+10, Firmographic(fullRecord(), nil))
	})

	t.Run("present but unmatched scores half weight", func(t *testing.T) {
		c := &Criteria{CompanySizes: []string{"1000+"}, Industries: []string{"Healthcare"}}
		assert.Equal(t, 15+12+10+7+10, Firmographic(fullRecord(), c))
	})

	t.Run("absent attributes score zero", func(t *testing.T) {
		rec := models.Record{Email: "x@y.io"}
		assert.Equal(t, 2, Firmographic(rec, &Criteria{JobTitles: []string{"CEO"}}))
	})

	t.Run("matching is bidirectional", func(t *testing.T) {
		rec := models.Record{JobTitle: "VP Sales"}
		assert.Equal(t, 15+2, Firmographic(rec, &Criteria{JobTitles: []string{"vp sales emea"}}))
		assert.Equal(t, 15+2, Firmographic(rec, &Criteria{JobTitles: []string{"SALES"}}))
	})

	t.Run("blank criteria entries never match", func(t *testing.T) {
		rec := models.Record{JobTitle: "VP Sales"}
		assert.Equal(t, 7+2, Firmographic(rec, &Criteria{JobTitles: []string{"  "}}))
	})
}

func TestCompleteness(t *testing.T) {
	assert.Equal(t, 0, completeness(models.Record{}))
	assert.Equal(t, 6, completeness(models.Record{Email: "a@b.io", FirstName: "A", LastName: "B"}))
	assert.Equal(t, 10, completeness(fullRecord()))
}
