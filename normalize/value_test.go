package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_KeepsMemberOrder(t *testing.T) {
	v, err := Parse(`{"zeta": 1, "alpha": {"b": true, "a": null}, "mid": [3, "x"]}`)
	require.NoError(t, err)
	require.True(t, v.IsObject())

	var keys []string
	for _, m := range v.Members() {
		keys = append(keys, m.Key)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)

	out, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":{"b":true,"a":null},"mid":[3,"x"]}`, string(out))
}

func TestParse_Invalid(t *testing.T) {
	for _, text := range []string{"", "   ", "{", `{"a":}`, "hello"} {
		_, err := Parse(text)
		assert.ErrorIs(t, err, ErrInvalidJSON, "text %q", text)
	}
}

func TestParse_DuplicateKeyKeepsLastValue(t *testing.T) {
	v, err := Parse(`{"a": 1, "b": 2, "a": 3}`)
	require.NoError(t, err)
	require.Equal(t, 2, v.Len())
	assert.Equal(t, "a", v.Members()[0].Key)
	a, _ := v.Get("a")
	assert.Equal(t, "3", a.Text())
}

func TestValue_Truthy(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  bool
	}{
		{"null", Null(), false},
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"zero", Int(0), false},
		{"zero float", Number("0.0"), false},
		{"non zero", Number("1.5"), true},
		{"empty string", String(""), false},
		{"string zero", String("0"), true},
		{"empty array", Array(), true},
		{"empty object", Object(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.Truthy())
		})
	}
}

func TestValue_Text(t *testing.T) {
	assert.Equal(t, "", Null().Text())
	assert.Equal(t, "true", Bool(true).Text())
	assert.Equal(t, "42", Int(42).Text())
	assert.Equal(t, "a<b>", String("a<b>").Text())
	assert.Equal(t, `{"k":["a<b>",1]}`, Object(M("k", Array(String("a<b>"), Int(1)))).Text())
}

func TestValue_UnmarshalJSON(t *testing.T) {
	var v Value
	require.NoError(t, v.UnmarshalJSON([]byte(`[{"policy_name":"X"}]`)))
	first, ok := v.First()
	require.True(t, ok)
	name, _ := first.Get("policy_name")
	s, ok := name.Str()
	require.True(t, ok)
	assert.Equal(t, "X", s)
}

func TestWalk_Order(t *testing.T) {
	v, err := Parse(`{"a": [1, {"b": 2}], "c": 3}`)
	require.NoError(t, err)

	var seen []string
	Walk(v, func(n Value) Action {
		seen = append(seen, n.Kind().String()+":"+n.Text())
		return Continue
	})
	assert.Equal(t, []string{
		`object:{"a":[1,{"b":2}],"c":3}`,
		`array:[1,{"b":2}]`,
		"number:1",
		`object:{"b":2}`,
		"number:2",
		"number:3",
	}, seen)
}

func TestWalk_SkipChildrenAndStop(t *testing.T) {
	v, err := Parse(`{"skip": {"deep": 1}, "stop": 2, "after": 3}`)
	require.NoError(t, err)

	var numbers []string
	stopped := Walk(v, func(n Value) Action {
		if n.IsObject() && n.Has("deep") {
			return SkipChildren
		}
		if n.Kind() == KindNumber {
			numbers = append(numbers, n.Text())
			if n.Text() == "2" {
				return Stop
			}
		}
		return Continue
	})
	assert.True(t, stopped)
	assert.Equal(t, []string{"2"}, numbers)
}

func TestFind(t *testing.T) {
	v, err := Parse(`[{"x": 1}, {"y": {"target": true}}]`)
	require.NoError(t, err)

	found, ok := Find(v, func(n Value) bool { return n.Has("target") })
	require.True(t, ok)
	assert.Equal(t, `{"target":true}`, found.Text())

	_, ok = Find(v, func(n Value) bool { return n.Has("missing") })
	assert.False(t, ok)
}
