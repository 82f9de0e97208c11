package templates_test

import (
	"bytes"
	"testing"

	"github.com/delaneyj/todoparty/cmd/todo/templates"
	"github.com/delaneyj/todoparty/todo"
	"github.com/stretchr/testify/assert"
)

func TestListMarkdown(t *testing.T) {
	list := todo.List{ID: "l1", Name: "Groceries", OwnerID: "u1", Members: []string{"u1"}}
	items := []todo.Item{
		{ID: "a", Title: "Milk", Done: true},
		{ID: "b", Title: "*Eggs*"},
	}
	got := templates.ListMarkdown(list, items)
	want := "# Groceries\n" +
		"\n" +
		"- [x] Milk\n" +
		"- [ ] \\*Eggs\\*\n" +
		"\n" +
		"1 of 2 left\n"
	assert.Equal(t, want, got)
}

func TestListMarkdownShared(t *testing.T) {
	list := todo.List{Name: "Trip", Members: []string{"u1", "u2", "u3"}}
	got := templates.ListMarkdown(list, nil)
	want := "# Trip\n" +
		"\n" +
		"_Shared with 2 others_\n" +
		"\n" +
		"_No items._\n" +
		"\n" +
		"0 of 0 left\n"
	assert.Equal(t, want, got)
}

func TestAllMarkdown(t *testing.T) {
	exports := []templates.Export{
		{List: todo.List{Name: "A", Members: []string{"u"}}},
		{List: todo.List{Name: "B", Members: []string{"u", "v"}}, Items: []todo.Item{{Title: "one"}}},
	}
	var buf bytes.Buffer
	templates.WriteAllMarkdown(&buf, exports)

	want := templates.ListMarkdown(exports[0].List, nil) +
		"\n---\n\n" +
		templates.ListMarkdown(exports[1].List, exports[1].Items)
	assert.Equal(t, want, buf.String())
	assert.Contains(t, buf.String(), "_Shared with 1 other_")
}

func TestTitlesStayOnOneLine(t *testing.T) {
	got := templates.ListMarkdown(todo.List{Name: "x"}, []todo.Item{{Title: "a\nb"}})
	assert.Contains(t, got, "- [ ] a b\n")
}
