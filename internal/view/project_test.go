package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelflife/internal/expiry"
	"github.com/roach88/shelflife/internal/inventory"
)

var ref = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

// rec builds a record expiring days after ref.
func rec(id, name string, days int, loc inventory.Location) inventory.Record {
	return inventory.Record{
		ID:       id,
		Name:     name,
		Expiry:   expiry.DateOf(ref).AddDays(days),
		Location: loc,
	}
}

func rowNames(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Record.Name
	}
	return out
}

func TestProject_Scenario(t *testing.T) {
	// Store order: A, B, C as inserted.
	records := []inventory.Record{
		rec("1", "A", 5, ""),
		rec("2", "B", 5, ""),
		rec("3", "C", 40, ""),
	}

	rows, err := Project(records, ref, BucketAll, AllLocations)
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"A", "B", "C"}, rowNames(rows))
	assert.Equal(t, []int{5, 5, 40}, []int{rows[0].DaysRemaining, rows[1].DaysRemaining, rows[2].DaysRemaining})
	assert.Equal(t, []expiry.Bucket{expiry.Urgent7, expiry.Urgent7, expiry.PreExpired90},
		[]expiry.Bucket{rows[0].Bucket, rows[1].Bucket, rows[2].Bucket})
}

func TestProject_SortsByExpiryStable(t *testing.T) {
	records := []inventory.Record{
		rec("1", "late", 60, ""),
		rec("2", "tie-first", 10, ""),
		rec("3", "soon", 1, ""),
		rec("4", "tie-second", 10, ""),
		rec("5", "tie-third", 10, ""),
	}

	rows, err := Project(records, ref, BucketAll, AllLocations)
	require.NoError(t, err)
	assert.Equal(t, []string{"soon", "tie-first", "tie-second", "tie-third", "late"}, rowNames(rows))
}

func TestProject_ExcludesExpired(t *testing.T) {
	records := []inventory.Record{
		rec("1", "yesterday", -1, ""),
		rec("2", "today", 0, ""),
		rec("3", "long gone", -200, ""),
	}

	rows, err := Project(records, ref, BucketAll, AllLocations)
	require.NoError(t, err)
	assert.Equal(t, []string{"today"}, rowNames(rows))

	rows, err = Project(records, ref, BucketWithin7, AllLocations)
	require.NoError(t, err)
	assert.Equal(t, []string{"today"}, rowNames(rows))
}

func TestProject_BucketFilters(t *testing.T) {
	records := []inventory.Record{
		rec("1", "d0", 0, ""),
		rec("2", "d7", 7, ""),
		rec("3", "d8", 8, ""),
		rec("4", "d30", 30, ""),
		rec("5", "d31", 31, ""),
		rec("6", "d90", 90, ""),
		rec("7", "d91", 91, ""),
	}

	tests := []struct {
		filter BucketFilter
		want   []string
	}{
		{BucketAll, []string{"d0", "d7", "d8", "d30", "d31", "d90", "d91"}},
		{BucketWithin7, []string{"d0", "d7"}},
		{Bucket8To30, []string{"d8", "d30"}},
		{Bucket31To90, []string{"d31", "d90"}},
	}

	for _, tt := range tests {
		t.Run(tt.filter.String(), func(t *testing.T) {
			rows, err := Project(records, ref, tt.filter, AllLocations)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rowNames(rows))
		})
	}
}

func TestProject_LocationFilter(t *testing.T) {
	records := []inventory.Record{
		rec("1", "counter", 3, inventory.LocationCounter),
		rec("2", "fridge", 4, inventory.LocationRefrigerator),
		rec("3", "nowhere", 5, inventory.LocationUnset),
		rec("4", "fridge-late", 50, inventory.LocationRefrigerator),
	}

	rows, err := Project(records, ref, BucketAll, OnlyLocation(inventory.LocationRefrigerator))
	require.NoError(t, err)
	assert.Equal(t, []string{"fridge", "fridge-late"}, rowNames(rows))

	rows, err = Project(records, ref, BucketWithin7, OnlyLocation(inventory.LocationRefrigerator))
	require.NoError(t, err)
	assert.Equal(t, []string{"fridge"}, rowNames(rows), "filters are conjunctive")

	rows, err = Project(records, ref, BucketAll, OnlyLocation(inventory.LocationUnset))
	require.NoError(t, err)
	assert.Equal(t, []string{"nowhere"}, rowNames(rows))

	rows, err = Project(records, ref, BucketAll, AllLocations)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestProject_DoesNotMutateInput(t *testing.T) {
	records := []inventory.Record{
		rec("1", "late", 60, ""),
		rec("2", "soon", 1, ""),
	}
	before := append([]inventory.Record(nil), records...)

	first, err := Project(records, ref, BucketAll, AllLocations)
	require.NoError(t, err)
	assert.Equal(t, before, records)

	first[0].Record.Name = "changed"
	second, err := Project(records, ref, BucketAll, AllLocations)
	require.NoError(t, err)
	assert.Equal(t, "soon", second[0].Record.Name, "each call returns a fresh sequence")
}

func TestProject_InvalidDate(t *testing.T) {
	records := []inventory.Record{{ID: "bad", Name: "no date"}}

	_, err := Project(records, ref, BucketAll, AllLocations)
	require.Error(t, err)
	assert.True(t, expiry.IsInvalidDate(err))
}

func TestProject_Empty(t *testing.T) {
	rows, err := Project(nil, ref, BucketAll, AllLocations)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestProjectFilter(t *testing.T) {
	records := []inventory.Record{
		rec("1", "a", 3, inventory.LocationCounter),
		rec("2", "b", 20, inventory.LocationCounter),
	}
	rows, err := ProjectFilter(records, ref, Filter{Bucket: Bucket8To30, Location: OnlyLocation(inventory.LocationCounter)})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, rowNames(rows))
}
