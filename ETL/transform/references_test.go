package transform

import (
	"testing"

	"github.com/LilVoxy/support_etl/ETL/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dimensions() map[string]*models.Table {
	return map[string]*models.Table{
		"agents":             table("agents", []string{"agent_id"}, []string{"A1"}, []string{"A2"}),
		"contact_centers":    table("contact_centers", []string{"contact_center_id", "contact_center_name"}, []string{"C1", "North"}),
		"service_categories": table("service_categories", []string{"category_id", "department"}, []string{"S1", "Billing"}),
	}
}

func TestResolveReferencesUnknownCenter(t *testing.T) {
	facts := table("interactions", []string{"interaction_id", "agent_id", "contact_center_id", "category_id"},
		[]string{"I1", "A1", "C9", "S1"},
	)

	resolved, report := ResolveReferences(facts, dimensions(), models.InteractionForeignKeys)

	cell := resolved.Rows[0].Get("contact_center_id")
	assert.Equal(t, models.SentinelValue, cell.String())
	assert.Equal(t, models.MarkerMissingReference, cell.Marker)
	assert.Equal(t, "A1", resolved.Rows[0].Get("agent_id").Value)
	assert.Equal(t, 1, report["contact_center_id"])
	assert.Equal(t, 1, report.Total())

	// исходная таблица не изменяется
	assert.Equal(t, "C9", facts.Rows[0].Get("contact_center_id").Value)
}

func TestResolveReferencesClosure(t *testing.T) {
	facts := table("interactions", []string{"interaction_id", "agent_id", "contact_center_id", "category_id"},
		[]string{"I1", "A1", "C1", "S1"},
		[]string{"I2", "A3", "C1", ""},
		[]string{"I3", "", "C2", "S9"},
	)
	facts.Rows[0]["category_id"] = models.MissingField()

	dims := dimensions()
	resolved, report := ResolveReferences(facts, dims, models.InteractionForeignKeys)

	for _, fk := range models.InteractionForeignKeys {
		valid := dims[fk.Dimension.Name].IdentitySet(fk.Dimension.IdentityColumn)
		for _, row := range resolved.Rows {
			cell := row.Get(fk.Column)
			if cell.Marker == models.MarkerMissingReference {
				continue
			}
			_, ok := valid[cell.Value]
			assert.True(t, ok, "%s=%v not resolved", fk.Column, cell)
		}
	}
	assert.Equal(t, 2, report["agent_id"])
	assert.Equal(t, 3, report["category_id"])
}

func TestResolveReferencesSkipsAbsentColumn(t *testing.T) {
	facts := table("interactions", []string{"interaction_id", "agent_id"}, []string{"I1", "A1"})

	resolved, report := ResolveReferences(facts, dimensions(), models.InteractionForeignKeys)
	require.False(t, resolved.HasColumn("category_id"))
	assert.Equal(t, 0, report.Total())
}

func TestResolveReferencesIsStable(t *testing.T) {
	facts := table("interactions", []string{"interaction_id", "agent_id"}, []string{"I1", "A7"})

	once, _ := ResolveReferences(facts, dimensions(), models.InteractionForeignKeys)
	twice, report := ResolveReferences(once, dimensions(), models.InteractionForeignKeys)
	assert.Equal(t, once.Rows, twice.Rows)
	assert.Equal(t, 0, report.Total())
}
