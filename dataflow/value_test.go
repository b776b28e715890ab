package dataflow

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataValueEquality(t *testing.T) {
	assert.True(t, IntValue(5).Equal(IntValue(5)))
	assert.False(t, IntValue(5).Equal(IntValue(6)))
	assert.False(t, IntValue(5).Equal(TextValue("5")))
	assert.True(t, NullValue().Equal(NullValue()))

	now := time.Now()
	assert.True(t, TimeValue(now).Equal(TimeValue(now)))
}

func TestDataValueCompare(t *testing.T) {
	assert.Negative(t, NullValue().Compare(IntValue(0)), "null sorts first")
	assert.Negative(t, IntValue(1).Compare(IntValue(2)))
	assert.Positive(t, TextValue("b").Compare(TextValue("a")))
	assert.Zero(t, TextValue("a").Compare(TextValue("a")))
	assert.Negative(t, IntValue(100).Compare(TextValue("a")), "kinds order before values")
}

func TestDataValueUsableAsMapKey(t *testing.T) {
	seen := map[DataValue]int{}
	seen[IntValue(1)]++
	seen[IntValue(1)]++
	seen[TextValue("1")]++
	assert.Equal(t, 2, seen[IntValue(1)])
	assert.Equal(t, 1, seen[TextValue("1")])
}

func TestDataValueJSONRoundTrip(t *testing.T) {
	in := Row{IntValue(42), TextValue("a"), NullValue(), TimeValue(time.Unix(7, 9))}
	b, err := json.Marshal(in)
	require.NoError(t, err)

	var out Row
	require.NoError(t, json.Unmarshal(b, &out))
	assert.True(t, in.Equal(out))
}

func TestRowCloneIsIndependent(t *testing.T) {
	orig := Row{IntValue(1), TextValue("a")}
	clone := orig.Clone()
	clone[0] = IntValue(2)
	assert.True(t, orig[0].Equal(IntValue(1)))
}
