package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareFold(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"empty", "", "", 0},
		{"equal", "a", "a", 0},
		{"case insensitive", "a", "A", 0},
		{"case insensitive words", "app.Users", "APP.USERS", 0},
		{"ordered", "a.ref", "b.ref", -1},
		{"ordered reverse", "b.ref", "a.ref", 1},
		{"prefix is smaller", "a", "ab", -1},
		{"prefix is smaller reverse", "ab", "a", 1},
		{"case folds before compare", "app.a", "app.B", -1},
		{"case folds before compare reverse", "app.B", "app.a", 1},
		{"greek sigma variants fold equal", "ς", "Σ", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareFold(tt.a, tt.b))
		})
	}
}

func TestSortDocuments_OrdersById(t *testing.T) {
	docs := []Document{
		{ID: "svc.users"},
		{ID: "App.billing"},
		{ID: "app.auth"},
	}
	SortDocuments(docs)

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"app.auth", "App.billing", "svc.users"}, ids)
}

func TestSortDocuments_StableOnFoldEqualIds(t *testing.T) {
	docs := []Document{
		{ID: "app.b", Name: "first"},
		{ID: "APP.A", Name: "second"},
		{ID: "app.A", Name: "third"},
	}
	SortDocuments(docs)

	assert.Equal(t, "second", docs[0].Name)
	assert.Equal(t, "third", docs[1].Name)
	assert.Equal(t, "first", docs[2].Name)
}

func TestSortDocuments_Idempotent(t *testing.T) {
	docs := []Document{
		{ID: "b"}, {ID: "A"}, {ID: "a"}, {ID: "C"},
	}
	SortDocuments(docs)
	once := make([]Document, len(docs))
	copy(once, docs)

	SortDocuments(docs)
	assert.Equal(t, once, docs)
}

func TestSortDocuments_DeterministicAcrossInputOrders(t *testing.T) {
	a := []Document{{ID: "z.one"}, {ID: "m.two"}, {ID: "A.three"}}
	b := []Document{{ID: "m.two"}, {ID: "A.three"}, {ID: "z.one"}}

	SortDocuments(a)
	SortDocuments(b)
	assert.Equal(t, a, b)
}

func TestByKey_ProjectsArbitraryFields(t *testing.T) {
	cmp := ByKey(func(d Document) string { return d.Name })
	assert.Equal(t, 0, cmp(Document{Name: "Users"}, Document{Name: "users"}))
	assert.Equal(t, -1, cmp(Document{Name: "Auth"}, Document{Name: "users"}))
}

func TestIsDeprecated(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want bool
	}{
		{"leading paragraph", "Deprecated: use Get instead.", true},
		{"later paragraph", "Fetch returns the value.\n\nDeprecated: use Get instead.", true},
		{"indented paragraph", "Fetch returns the value.\n\n  Deprecated: gone.", true},
		{"not deprecated", "Fetch returns the value.", false},
		{"mid paragraph mention", "This text mentions Deprecated: inline only.", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDeprecated(tt.doc))
		})
	}
}
