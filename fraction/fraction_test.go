package fraction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestNewReduces(t *testing.T) {
	f, err := New(6, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.Num())
	assert.Equal(t, int64(4), f.Den())

	f, err = New(-10, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), f.Num())
	assert.Equal(t, int64(2), f.Den())

	zero, err := New(0, 7)
	require.NoError(t, err)
	assert.Equal(t, Zero, zero)
	assert.Equal(t, int64(1), zero.Den())
}

func TestNewRejectsBadDenominator(t *testing.T) {
	for _, den := range []int64{0, -1, -12} {
		_, err := New(1, den)
		assert.ErrorIs(t, err, ErrInvalidArgument, "den=%d", den)
	}
}

func TestArithmetic(t *testing.T) {
	half := MustNew(1, 2)
	third := MustNew(1, 3)

	assert.Equal(t, MustNew(5, 6), half.Add(third))
	assert.Equal(t, MustNew(1, 6), half.Sub(third))
	assert.Equal(t, MustNew(1, 6), half.Mul(third))
	assert.Equal(t, MustNew(-1, 2), half.Negate())

	q, err := half.Div(third)
	require.NoError(t, err)
	assert.Equal(t, MustNew(3, 2), q)

	q, err = half.Div(MustNew(-1, 4))
	require.NoError(t, err)
	assert.Equal(t, FromInt(-2), q)

	_, err = half.Div(Zero)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAddThenSubtractIsIdentity(t *testing.T) {
	values := []Fraction{
		Zero, FromInt(3), MustNew(-7, 3), MustNew(5, 9), MustNew(23, 9), MustNew(-1, 64),
	}
	for _, a := range values {
		for _, b := range values {
			assert.Equal(t, a, a.Add(b).Sub(b), "a=%s b=%s", a, b)
		}
	}
}

func TestCompareAndPredicates(t *testing.T) {
	assert.Equal(t, -1, MustNew(1, 3).Compare(MustNew(1, 2)))
	assert.Equal(t, 1, MustNew(2, 3).Compare(MustNew(1, 2)))
	assert.Equal(t, 0, MustNew(2, 4).Compare(MustNew(1, 2)))
	assert.Equal(t, 1, Zero.Compare(MustNew(-1, 9)))

	assert.True(t, Zero.IsZero())
	assert.True(t, MustNew(-1, 3).IsNegative())
	assert.False(t, MustNew(1, 3).IsNegative())
	assert.InDelta(t, 0.75, MustNew(3, 4).Float64(), 1e-12)
}

func TestFloor(t *testing.T) {
	assert.Equal(t, int64(2), MustNew(5, 2).Floor())
	assert.Equal(t, int64(-3), MustNew(-5, 2).Floor())
	assert.Equal(t, int64(4), FromInt(4).Floor())
	assert.Equal(t, int64(0), Zero.Floor())
}

func TestParse(t *testing.T) {
	tests := []struct {
		text     string
		num, den int64
	}{
		{"2 5/9", 23, 9},
		{"-5/4", -5, 4},
		{"08/07", 8, 7},
		{"  3  ", 3, 1},
		{"1/2", 1, 2},
		{"4/2", 2, 1},
		{"-2 1/2", -5, 2},
		{"1 0/3", 1, 1},
		{"25/9", 25, 9},
		{"3 / 4", 3, 4},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			f, err := Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.num, f.Num())
			assert.Equal(t, tt.den, f.Den())
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, text := range []string{"", "   ", "1/0", "2 3/0", "abc", "1/2/3", "1.5", "2 -1/2", "/4", "3/"} {
		_, err := Parse(text)
		assert.ErrorIs(t, err, ErrInvalidFormat, "text=%q", text)
	}
}

func TestFormat(t *testing.T) {
	f := MustNew(23, 9)
	assert.Equal(t, "2 5/9", f.Format(true))
	assert.Equal(t, "23/9", f.Format(false))
	assert.Equal(t, "-2 1/2", MustNew(-5, 2).Format(true))
	assert.Equal(t, "1/2", MustNew(1, 2).Format(true))
	assert.Equal(t, "7", FromInt(7).Format(true))
	assert.Equal(t, "0", Zero.Format(false))
}

func TestFormatRoundTrips(t *testing.T) {
	for num := int64(-30); num <= 30; num++ {
		for den := int64(1); den <= 12; den++ {
			f := MustNew(num, den)

			plain, err := Parse(f.Format(false))
			require.NoError(t, err)
			assert.Equal(t, f, plain)

			mixed, err := Parse(f.Format(true))
			require.NoError(t, err)
			assert.Equal(t, f, mixed)
		}
	}
}

func TestJSON(t *testing.T) {
	type doc struct {
		Dose Fraction `json:"dose"`
	}

	b, err := json.Marshal(doc{Dose: MustNew(3, 2)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"dose":"3/2"}`, string(b))

	var d doc
	require.NoError(t, json.Unmarshal([]byte(`{"dose":"1 1/2"}`), &d))
	assert.Equal(t, MustNew(3, 2), d.Dose)

	require.NoError(t, json.Unmarshal([]byte(`{"dose":2}`), &d))
	assert.Equal(t, FromInt(2), d.Dose)

	assert.Error(t, json.Unmarshal([]byte(`{"dose":"1/0"}`), &d))
}

func TestBSON(t *testing.T) {
	type doc struct {
		Dose Fraction `bson:"dose"`
	}

	raw, err := bson.Marshal(doc{Dose: MustNew(-7, 4)})
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, "-7/4", m["dose"])

	var d doc
	require.NoError(t, bson.Unmarshal(raw, &d))
	assert.Equal(t, MustNew(-7, 4), d.Dose)
}
