package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Result
	}{
		{
			name: "compact with preposition",
			in:   "AB+ 2 near Andheri",
			want: Result{BloodGroup: "AB+", Quantity: 2, Location: "Andheri", Urgency: "URGENT"},
		},
		{
			name: "urgent bag form",
			in:   "O- urgent 1 bag Bandra",
			want: Result{BloodGroup: "O-", Quantity: 1, Location: "Bandra", Urgency: "CRITICAL"},
		},
		{
			name: "units at station",
			in:   "Emergency O+ 3 units at Dadar station",
			want: Result{BloodGroup: "O+", Quantity: 3, Location: "Dadar Station", Urgency: "CRITICAL"},
		},
		{
			name: "group only",
			in:   "AB+ 1",
			want: Result{BloodGroup: "AB+", Quantity: 1, Urgency: "URGENT"},
		},
		{
			name: "spelled out sign",
			in:   "need B positive 2 bags in Thane",
			want: Result{BloodGroup: "B+", Quantity: 2, Location: "Thane", Urgency: "URGENT"},
		},
		{
			name: "routine keyword",
			in:   "A- routine 2 from Vashi",
			want: Result{BloodGroup: "A-", Quantity: 2, Location: "Vashi", Urgency: "ROUTINE"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseQuantityClamped(t *testing.T) {
	got, err := Parse("O+ 50 bags")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)
}

func TestParseMissingGroupFails(t *testing.T) {
	_, err := Parse("need blood urgently near Andheri")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blood group")
}
