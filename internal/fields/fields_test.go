package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		candidates []Candidate
		want       string
	}{
		{"no candidates", nil, "placeholder"},
		{"first present wins", []Candidate{Value("a"), Value("b")}, "a"},
		{"skips absent", []Candidate{{Value: "hidden"}, Value("b")}, "b"},
		{"skips blank", []Candidate{Value("   "), Value("b")}, "b"},
		{"trims result", []Candidate{Value("  Jane  ")}, "Jane"},
		{"all blank", []Candidate{Value(""), Value(" ")}, "placeholder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve("placeholder", tt.candidates...))
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	cands := []Candidate{{Value: "x"}, Value(""), Value("y"), Value("z")}
	first := Resolve("p", cands...)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Resolve("p", cands...))
	}
	assert.Equal(t, "y", first)
}

func TestExplicit(t *testing.T) {
	assert.False(t, Explicit(PlaceholderEmail, PlaceholderEmail).Present)
	assert.False(t, Explicit(" "+PlaceholderEmail+" ", PlaceholderEmail).Present)
	assert.True(t, Explicit("jane@x.com", PlaceholderEmail).Present)
	assert.Equal(t, "fallback", Resolve(PlaceholderEmail, Explicit(PlaceholderEmail, PlaceholderEmail), Value("fallback")))
}

func TestFromJSON(t *testing.T) {
	doc := gjson.Parse(`{"s":"text","n":42,"b":true,"o":{"a":1},"arr":[1],"nil":null}`)

	assert.Equal(t, Candidate{Value: "text", Present: true}, FromJSON(doc.Get("s")))
	assert.Equal(t, Candidate{Value: "42", Present: true}, FromJSON(doc.Get("n")))
	assert.False(t, FromJSON(doc.Get("b")).Present)
	assert.False(t, FromJSON(doc.Get("o")).Present)
	assert.False(t, FromJSON(doc.Get("arr")).Present)
	assert.False(t, FromJSON(doc.Get("nil")).Present)
	assert.False(t, FromJSON(doc.Get("missing")).Present)
}

func TestFromPaths(t *testing.T) {
	doc := gjson.Parse(`{"name":"","fullName":"Sam Lee"}`)
	assert.Equal(t, "Sam Lee", Resolve("", FromPaths(doc, "name", "fullName")...))
}

func TestJoinPresent(t *testing.T) {
	assert.Equal(t, "Austin, TX", JoinPresent(", ", "Austin", "TX"))
	assert.Equal(t, "Austin", JoinPresent(", ", "Austin", ""))
	assert.Equal(t, "TX", JoinPresent(", ", " ", "TX"))
	assert.Equal(t, "", JoinPresent(", ", "", ""))
	assert.Equal(t, "Ana Lima", JoinPresent(" ", " Ana ", "Lima"))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, []string{"Go", "SQL", "3"}, Strings(gjson.Parse(`["Go", "", " SQL ", 3, {"x":1}, null]`)))
	assert.Equal(t, []string{}, Strings(gjson.Parse(`"Go"`)))
	assert.Equal(t, []string{}, Strings(gjson.Result{}))
}
