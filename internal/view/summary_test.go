package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelflife/internal/expiry"
	"github.com/roach88/shelflife/internal/inventory"
)

func TestSummarize(t *testing.T) {
	records := []inventory.Record{
		rec("1", "expired", -3, inventory.LocationCounter),
		rec("2", "d2", 2, inventory.LocationRefrigerator),
		rec("3", "d7", 7, ""),
		rec("4", "d8", 8, ""),
		rec("5", "d45", 45, inventory.LocationStockroom),
		rec("6", "d90", 90, ""),
		rec("7", "d91", 91, ""),
		rec("8", "d400", 400, ""),
	}

	s, err := Summarize(records, ref)
	require.NoError(t, err)

	assert.Equal(t, Summary{
		Urgent7:      3,
		Warning30:    1,
		PreExpired90: 2,
		Ok:           2,
		Expired:      1,
	}, s)
	assert.Equal(t, len(records), s.Total())
	assert.Equal(t, 3, s.Count(expiry.Urgent7))
	assert.Equal(t, 2, s.Count(expiry.Ok))
	assert.Equal(t, 0, s.Count(expiry.Bucket(0)))
}

func TestSummarize_IndependentOfProjection(t *testing.T) {
	records := []inventory.Record{
		rec("1", "counter", 3, inventory.LocationCounter),
		rec("2", "fridge", 3, inventory.LocationRefrigerator),
	}

	rows, err := Project(records, ref, BucketAll, OnlyLocation(inventory.LocationCounter))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	s, err := Summarize(records, ref)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Urgent7)
}

func TestSummarize_InvalidDate(t *testing.T) {
	_, err := Summarize([]inventory.Record{{ID: "x", Name: "x"}}, ref)
	require.Error(t, err)
	assert.True(t, expiry.IsInvalidDate(err))
}
