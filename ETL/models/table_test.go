package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellMarkers(t *testing.T) {
	assert.True(t, Null().IsNull())
	assert.Equal(t, "", Null().String())
	assert.True(t, MissingField().IsSentinel())
	assert.True(t, MissingReference().IsSentinel())
	assert.Equal(t, SentinelValue, MissingField().String())
	assert.Equal(t, SentinelValue, MissingReference().String())
	assert.NotEqual(t, MissingField(), MissingReference())
	assert.False(t, Value("Unknown").IsSentinel())
	assert.Equal(t, "missing_reference", MarkerMissingReference.String())
}

func TestRowGetAbsentColumnIsNull(t *testing.T) {
	row := Row{"a": Value("1")}
	assert.True(t, row.Get("b").IsNull())

	clone := row.Clone()
	clone["a"] = Value("2")
	assert.Equal(t, "1", row.Get("a").Value)
}

func TestTableColumns(t *testing.T) {
	table := NewTable("agents", "agent_id", "name")
	table.AddColumns("name", "team")
	assert.Equal(t, []string{"agent_id", "name", "team"}, table.Columns)

	table.Append(Row{"agent_id": Value("A1"), "name": Value("Ann"), "team": Null()})
	table.DropColumn("name")
	assert.Equal(t, []string{"agent_id", "team"}, table.Columns)
	_, present := table.Rows[0]["name"]
	assert.False(t, present)
}

func TestTableFillMissingAndIdentitySet(t *testing.T) {
	table := NewTable("agents", "agent_id", "name")
	table.Append(Row{"agent_id": Value("A1")})
	table.Append(Row{"agent_id": Null(), "name": Value("x")})
	table.Append(Row{"agent_id": MissingReference()})

	set := table.IdentitySet("agent_id")
	assert.Equal(t, map[string]struct{}{"A1": {}}, set)

	table.FillMissing(MissingField())
	assert.Equal(t, MissingField(), table.Rows[0].Get("name"))
	assert.Equal(t, MissingField(), table.Rows[1].Get("agent_id"))
	assert.Equal(t, MissingReference(), table.Rows[2].Get("agent_id"))
}

func TestTableCloneIsDeep(t *testing.T) {
	table := NewTable("agents", "agent_id")
	table.Append(Row{"agent_id": Value("A1")})

	clone := table.Clone()
	clone.Rows[0]["agent_id"] = Value("A2")
	clone.AddColumns("name")

	assert.Equal(t, "A1", table.Rows[0].Get("agent_id").Value)
	assert.Equal(t, []string{"agent_id"}, table.Columns)
}

func TestParseAction(t *testing.T) {
	for raw, want := range map[string]Action{" Add ": ActionAdd, "UPDATE": ActionUpdate, "delete": ActionDelete} {
		got, ok := ParseAction(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got)
	}
	got, ok := ParseAction(" Upsert")
	assert.False(t, ok)
	assert.Equal(t, Action("upsert"), got)
}

func TestErrorTaxonomy(t *testing.T) {
	var err error = &SchemaError{Table: "interactions", Column: "interaction_end"}
	assert.True(t, errors.Is(err, ErrSchema))
	assert.Contains(t, err.Error(), "interaction_end")

	err = &ValidationError{Table: "agents", Invalid: []string{"drop", "upsert"}}
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "drop, upsert")

	err = &ValidationError{Table: "agents", NullIdentityRows: []int{2, 5}}
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "[2, 5]")

	err = &BatchNameError{Path: "delta/agents_latest.csv"}
	assert.True(t, errors.Is(err, ErrBatchName))

	cause := errors.New("bad layout")
	err = &ConversionWarning{Table: "interactions", Column: "timestamp", Value: "x", Err: cause}
	require.True(t, errors.Is(err, cause))
}
