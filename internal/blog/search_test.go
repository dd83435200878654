package blog

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery_SimpleFilter(t *testing.T) {
	query := `title CONTAINS "iron"`
	expected := &SubstringFilter{column: "posts.title", substr: "iron"}

	filter, err := ParseQuery(query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(filter, expected) {
		t.Errorf("expected %v, got %v", expected, filter)
	}
}

func TestParseQuery_AndExpression(t *testing.T) {
	query := `title CONTAINS "iron" AND category = "Comics"`
	expected := &AndFilter{
		filters: []Filter{
			&SubstringFilter{column: "posts.title", substr: "iron"},
			&StringEqFilter{column: "categories.name", value: "Comics"},
		},
	}

	filter, err := ParseQuery(query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(filter, expected) {
		t.Errorf("expected %v, got %v", expected, filter)
	}
}

func TestParseQuery_OrExpression(t *testing.T) {
	query := `author = "Stan Lee" OR body CONTAINS "asgard"`
	expected := &OrFilter{
		filters: []Filter{
			&StringEqFilter{column: "posts.author", value: "Stan Lee"},
			&SubstringFilter{column: "posts.body", substr: "asgard"},
		},
	}

	filter, err := ParseQuery(query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(filter, expected) {
		t.Errorf("expected %v, got %v", expected, filter)
	}
}

func TestParseQuery_NotExpression(t *testing.T) {
	query := `NOT category = "Films"`
	expected := &NotFilter{
		filter: &StringEqFilter{column: "categories.name", value: "Films"},
	}

	filter, err := ParseQuery(query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(filter, expected) {
		t.Errorf("expected %v, got %v", expected, filter)
	}
}

func TestParseQuery_ComplexExpression(t *testing.T) {
	query := `title CONTAINS "man" AND NOT (title > "M" OR author < "B")`
	expected := &AndFilter{
		filters: []Filter{
			&SubstringFilter{column: "posts.title", substr: "man"},
			&NotFilter{
				filter: &OrFilter{
					filters: []Filter{
						&StringGtFilter{column: "posts.title", value: "M"},
						&StringLtFilter{column: "posts.author", value: "B"},
					},
				},
			},
		},
	}

	filter, err := ParseQuery(query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(filter, expected) {
		t.Errorf("expected %v, got %v", expected, filter)
	}
}

func TestParseQuery_Errors(t *testing.T) {
	for _, query := range []string{
		``,
		`title`,
		`title CONTAINS`,
		`title CONTAINS iron`,
		`rating > "4"`,
		`title CONTAINS "iron" AND`,
		`(title = "x"`,
	} {
		_, err := ParseQuery(query)
		assert.Error(t, err, "query %q", query)
	}
}

func TestFilterWhere(t *testing.T) {
	filter, err := ParseQuery(`title CONTAINS "50%_off" AND NOT category = "Films"`)
	require.NoError(t, err)

	clause, args := filter.Where()
	assert.Equal(t, `(LOWER(posts.title) LIKE ? ESCAPE '\') AND (NOT (LOWER(categories.name) = LOWER(?)))`, clause)
	assert.Equal(t, []any{`%50\%\_off%`, "Films"}, args)
}
