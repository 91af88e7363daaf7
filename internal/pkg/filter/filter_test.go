package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type person struct {
	name  string
	email string
}

func personFields(p person) []string { return []string{p.name, p.email} }

func TestApply(t *testing.T) {
	people := []person{
		{"John Smith", "john@acme.io"},
		{"Jane Doe", "jane@example.com"},
		{"Bob Johnson", "bob@acme.io"},
	}

	t.Run("empty query returns everything", func(t *testing.T) {
		assert.Equal(t, people, Apply(people, "", personFields))
		assert.Equal(t, people, Apply(people, "   ", personFields))
	})

	t.Run("case insensitive", func(t *testing.T) {
		got := Apply(people, "JOHN", personFields)
		assert.Equal(t, []person{people[0], people[2]}, got)
	})

	t.Run("matches any field and keeps order", func(t *testing.T) {
		got := Apply(people, "acme", personFields)
		assert.Equal(t, []person{people[0], people[2]}, got)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, Apply(people, "zzz", personFields))
	})

	t.Run("nil input", func(t *testing.T) {
		assert.Empty(t, Apply[person](nil, "john", personFields))
	})
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("Smi", "John Smith"))
	assert.False(t, Match("smith", "John", ""))
	assert.False(t, Match("x"))
}
