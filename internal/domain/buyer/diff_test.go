package buyer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff_OnlyTouchedKeys(t *testing.T) {
	prev := Fields{"fullName": "Aarav", "city": "Mohali", "status": "New"}
	next := Fields{"status": "Qualified"}

	assert.Equal(t, Changes{"status": {From: "New", To: "Qualified"}}, Diff(prev, next))
}

func TestDiff_IgnoresBookkeepingFields(t *testing.T) {
	prev := Fields{"id": "a", "ownerId": "o1", "version": int64(1), "updatedAt": "t1"}
	next := Fields{"id": "b", "ownerId": "o2", "version": int64(2), "updatedAt": "t2", "createdAt": "t0"}

	assert.Empty(t, Diff(prev, next))
}

func TestDiff_NilAndClearedValues(t *testing.T) {
	prev := Fields{"email": nil, "bhk": "Two", "notes": nil}
	next := Fields{"email": "a@b.co", "bhk": nil, "notes": nil}

	got := Diff(prev, next)

	assert.Equal(t, Changes{
		"email": {From: nil, To: "a@b.co"},
		"bhk":   {From: "Two", To: nil},
	}, got)
}

func TestDiff_NumbersCompareByValue(t *testing.T) {
	prev := Fields{"budgetMin": 5000000}
	next := Fields{"budgetMin": float64(5000000)}
	assert.Empty(t, Diff(prev, next))

	next["budgetMin"] = 6000000
	assert.Len(t, Diff(prev, next), 1)
}

func TestDiff_TagsAreOrderSensitive(t *testing.T) {
	prev := Fields{"tags": []string{"hot", "nri"}}

	assert.Empty(t, Diff(prev, Fields{"tags": []string{"hot", "nri"}}))
	assert.Len(t, Diff(prev, Fields{"tags": []string{"nri", "hot"}}), 1)
	assert.Len(t, Diff(prev, Fields{"tags": []string{"hot"}}), 1)
}

func TestDiff_EmptyAndNilSlicesMatch(t *testing.T) {
	prev := Fields{"tags": []string(nil)}
	assert.Empty(t, Diff(prev, Fields{"tags": []string{}}))
}

func TestDiff_PointersAreDereferenced(t *testing.T) {
	a, b := 10, 10
	assert.Empty(t, Diff(Fields{"budgetMax": &a}, Fields{"budgetMax": &b}))
	assert.Empty(t, Diff(Fields{"budgetMax": &a}, Fields{"budgetMax": 10}))
	assert.Len(t, Diff(Fields{"budgetMax": (*int)(nil)}, Fields{"budgetMax": 10}), 1)
}

func TestDiff_BuyerFieldsRoundTrip(t *testing.T) {
	b := storedBuyer()
	assert.Empty(t, Diff(b.Fields(), b.Clone().Fields()))

	status := StatusConverted
	in := &UpdateInput{Status: &status, ClearBudgetMax: true}
	got := Diff(b.Fields(), in.Fields())

	assert.Equal(t, Changes{
		"status":    {From: "New", To: "Converted"},
		"budgetMax": {From: 7000000, To: nil},
	}, got)
}
