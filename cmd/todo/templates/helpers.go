package templates

import (
	"strings"

	"github.com/delaneyj/todoparty/todo"
)

// Export pairs a list with its items for AllMarkdown.
type Export struct {
	List  todo.List
	Items []todo.Item
}

func checkbox(done bool) string {
	if done {
		return "x"
	}
	return " "
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func remaining(items []todo.Item) int {
	n := 0
	for _, it := range items {
		if !it.Done {
			n++
		}
	}
	return n
}

var mdReplacer = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"#", `\#`,
	"\r\n", " ",
	"\n", " ",
)

// mdEscape keeps user text from being read as markdown and folds it onto
// one line.
func mdEscape(s string) string {
	return mdReplacer.Replace(s)
}
