package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueKinds(t *testing.T) {
	assert.Equal(t, KindNull, Null().Kind())
	assert.Equal(t, KindString, Str("x").Kind())
	assert.Equal(t, KindNumber, Num(1).Kind())
	assert.Equal(t, KindBool, Bool(true).Kind())
	assert.Equal(t, KindObject, Object(nil).Kind())
	assert.Equal(t, KindArray, Array(nil).Kind())

	assert.True(t, Null().IsNull())
	assert.False(t, Str("").IsNull(), "empty string is not null")
}

func TestValueAccessors(t *testing.T) {
	s, ok := Str("hi").AsString()
	require.True(t, ok)
	assert.Equal(t, "hi", s)

	_, ok = Num(5).AsString()
	assert.False(t, ok)

	n, ok := Num(2.5).AsNumber()
	require.True(t, ok)
	assert.Equal(t, 2.5, n)

	_, ok = Str("2.5").AsNumber()
	assert.False(t, ok, "no implicit coercion on accessors")
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"null empty", Null(), ""},
		{"string verbatim", Str("a b"), "a b"},
		{"integral number without decimal point", Num(42), "42"},
		{"fractional number", Num(0.5), "0.5"},
		{"large number without exponent", Num(1e15), "1000000000000000"},
		{"bool", Bool(false), "false"},
		{"array as JSON", Array([]Value{Num(1), Str("x")}), `[1,"x"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Display())
		})
	}
}

func TestKey_ObjectFieldOrderStable(t *testing.T) {
	a := Object(map[string]Value{"b": Num(2), "a": Num(1)})
	b := Object(map[string]Value{"a": Num(1), "b": Num(2)})

	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, `{"a":1,"b":2}`, a.Key())
}

func TestKey_DistinguishesStringFromNumber(t *testing.T) {
	assert.NotEqual(t, Str("1").Key(), Num(1).Key())
	assert.NotEqual(t, Str("").Key(), Null().Key())
}

func TestField(t *testing.T) {
	obj := Object(map[string]Value{"city": Str("Oslo")})

	assert.Equal(t, Str("Oslo"), obj.Field("city"))
	assert.True(t, obj.Field("missing").IsNull())
	assert.True(t, Str("Oslo").Field("city").IsNull(), "non-object resolves to null")
}

func TestFromAny(t *testing.T) {
	assert.Equal(t, Null(), FromAny(nil))
	assert.Equal(t, Num(7), FromAny(7))
	assert.Equal(t, Num(7), FromAny(int64(7)))
	assert.Equal(t, Str("x"), FromAny("x"))
	assert.Equal(t, Bool(true), FromAny(true))

	v := FromAny(map[string]interface{}{"tags": []interface{}{"a", 1.0}})
	assert.Equal(t, Array([]Value{Str("a"), Num(1)}), v.Field("tags"))
}

func TestJSONRoundTrip(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"n": 1.5, "s": "x", "b": true, "z": null, "a": [1, 2]}`), &v))

	assert.Equal(t, Num(1.5), v.Field("n"))
	assert.Equal(t, Str("x"), v.Field("s"))
	assert.True(t, v.Field("z").IsNull())

	encoded, err := json.Marshal(v.Field("a"))
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2]`, string(encoded))
}

func TestRowClone(t *testing.T) {
	row := Row{Str("a"), Num(1)}
	clone := row.Clone()
	clone[0] = Str("b")

	assert.Equal(t, Str("a"), row[0])
}

func TestHeaderRow(t *testing.T) {
	assert.Equal(t, Row{Str("a"), Str("b")}, HeaderRow([]string{"a", "b"}))
}
