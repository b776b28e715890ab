package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/dataflow"
)

func TestBadgerInsertAndLookup(t *testing.T) {
	st, err := NewBadger(0)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.ProcessUpdate(dataflow.UpdateOf(
		dataflow.PositiveRecord(intRow(1, 10)),
		dataflow.PositiveRecord(intRow(1, 11)),
		dataflow.PositiveRecord(intRow(2, 20)),
	)))

	rows, ok := st.Lookup(0, dataflow.IntValue(1))
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Equal(intRow(1, 10)))
	assert.True(t, rows[1].Equal(intRow(1, 11)))
}

func TestBadgerRetract(t *testing.T) {
	st, err := NewBadger(0)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.ProcessUpdate(dataflow.UpdateOf(
		dataflow.PositiveRecord(intRow(1, 10)),
	)))
	require.NoError(t, st.ProcessUpdate(dataflow.UpdateOf(
		dataflow.NegativeRecord(intRow(1, 10)),
	)))

	rows, ok := st.Lookup(0, dataflow.IntValue(1))
	require.True(t, ok)
	assert.Empty(t, rows)
}

func TestBadgerMixedValueKinds(t *testing.T) {
	st, err := NewBadger(1)
	require.NoError(t, err)
	defer st.Close()

	row := dataflow.Row{dataflow.IntValue(1), dataflow.TextValue("a"), dataflow.NullValue()}
	require.NoError(t, st.ProcessUpdate(dataflow.UpdateOf(dataflow.PositiveRecord(row))))

	rows, ok := st.Lookup(1, dataflow.TextValue("a"))
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Equal(row))
}

func TestBadgerUnindexedColumnMisses(t *testing.T) {
	st, err := NewBadger(0)
	require.NoError(t, err)
	defer st.Close()

	_, ok := st.Lookup(3, dataflow.IntValue(1))
	assert.False(t, ok)
}

func TestBadgerClosedBackend(t *testing.T) {
	st, err := NewBadger(0)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	assert.ErrorIs(t, st.ProcessUpdate(dataflow.UpdateOf(
		dataflow.PositiveRecord(intRow(1)),
	)), ErrNotOpen)
	_, ok := st.Lookup(0, dataflow.IntValue(1))
	assert.False(t, ok)
	assert.ErrorIs(t, st.Close(), ErrNotOpen)
}
