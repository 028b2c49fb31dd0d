package profile

import (
	"testing"

	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestExtract_Absent(t *testing.T) {
	empty := types.Identity{}
	for _, raw := range []string{"", "null", "{}", "[]", `"text"`, "{not json"} {
		t.Run(raw, func(t *testing.T) {
			assert.Equal(t, empty, Extract([]byte(raw)))
		})
	}
	assert.Equal(t, empty, Extract(nil))
}

func TestExtract_NestedProfile(t *testing.T) {
	raw := `{"profile":{"fullName":"Sam Lee","phone":"555-1111","headline":"Backend Engineer","location":"Austin, TX"}}`
	got := Extract([]byte(raw))

	assert.Equal(t, types.Identity{
		Name:     "Sam Lee",
		Title:    "Backend Engineer",
		Phone:    "555-1111",
		Location: "Austin, TX",
	}, got)
}

func TestExtract_FlatFields(t *testing.T) {
	raw := `{"name":"Jane Doe","email":"jane@x.com","phone":"555-0100","location":"Denver","title":"SRE"}`
	got := Extract([]byte(raw))

	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "jane@x.com", got.Email)
	assert.Equal(t, "555-0100", got.Phone)
	assert.Equal(t, "Denver", got.Location)
	assert.Equal(t, "SRE", got.Title)
}

func TestExtract_AlternateKeys(t *testing.T) {
	raw := `{"firstName":"Ana","lastName":"Lima","emailAddress":"ana@x.com","phoneNumber":"555-2222","city":"Lisbon","jobTitle":"Designer"}`
	got := Extract([]byte(raw))

	assert.Equal(t, "Ana Lima", got.Name)
	assert.Equal(t, "ana@x.com", got.Email)
	assert.Equal(t, "555-2222", got.Phone)
	assert.Equal(t, "Lisbon", got.Location)
	assert.Equal(t, "Designer", got.Title)
}

func TestExtract_PartialNameParts(t *testing.T) {
	assert.Equal(t, "Ana", Extract([]byte(`{"firstName":"Ana"}`)).Name)
	assert.Equal(t, "Lima", Extract([]byte(`{"lastName":"Lima"}`)).Name)
	assert.Equal(t, "", Extract([]byte(`{"firstName":"","lastName":null}`)).Name)
	assert.Equal(t, "Ana", Extract([]byte(`{"profile":{"firstName":"Ana"}}`)).Name)
}

func TestExtract_DirectNameBeatsConcatenation(t *testing.T) {
	raw := `{"profile":{"firstName":"Ana","lastName":"Lima"},"name":"Ana M. Lima"}`
	assert.Equal(t, "Ana M. Lima", Extract([]byte(raw)).Name)
}

func TestExtract_ProfileScopeWinsOverRoot(t *testing.T) {
	raw := `{"profile":{"email":"inner@x.com"},"email":"outer@x.com","phone":"555-3333"}`
	got := Extract([]byte(raw))

	assert.Equal(t, "inner@x.com", got.Email)
	assert.Equal(t, "555-3333", got.Phone, "root fields back-fill missing profile fields")
}

func TestExtract_StoredPersonalInfo(t *testing.T) {
	raw := `{"fullName":"Lee Park","headline":"PM","personalinfo":{"email":"lee@x.com","phone":"555-4444","location":"Seoul"}}`
	got := Extract([]byte(raw))

	assert.Equal(t, types.Identity{Name: "Lee Park", Title: "PM", Email: "lee@x.com", Phone: "555-4444", Location: "Seoul"}, got)
}

func TestExtract_StructuredLocation(t *testing.T) {
	assert.Equal(t, "Austin, TX", Extract([]byte(`{"location":{"city":"Austin","region":"TX"}}`)).Location)
	assert.Equal(t, "Austin", Extract([]byte(`{"location":{"city":"Austin"}}`)).Location)
	assert.Equal(t, "Portugal", Extract([]byte(`{"location":{"country":"Portugal"}}`)).Location)
	assert.Equal(t, "Porto", Extract([]byte(`{"location":{},"address":"Porto"}`)).Location)
}

func TestExtract_IgnoresNonScalarValues(t *testing.T) {
	raw := `{"name":{"first":"x"},"fullName":"Real Name","email":["a@x.com"],"phone":true}`
	got := Extract([]byte(raw))

	assert.Equal(t, "Real Name", got.Name)
	assert.Equal(t, "", got.Email)
	assert.Equal(t, "", got.Phone)
}

func TestExtract_PersonalInfoName(t *testing.T) {
	got := Extract([]byte(`{"personalinfo":{"name":"Lee Park"}}`))
	assert.Equal(t, "Lee Park", got.Name)

	got = Extract([]byte(`{"fullName":"Direct","personalinfo":{"name":"Nested"}}`))
	assert.Equal(t, "Direct", got.Name)
}
