package extract

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var plainIdent = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// collectText returns the whitespace-normalized text content of n.
func collectText(n *html.Node) string {
	return strings.Join(strings.Fields(collectRawText(n)), " ")
}

func collectRawText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			walk(cc)
		}
	}
	walk(n)
	return b.String()
}

// selector returns a CSS selector for n: the id when it is a plain
// identifier, otherwise the nth-of-type path from the root element.
func selector(n *html.Node) string {
	if id := attr(n, "id"); id != "" {
		if plainIdent.MatchString(id) {
			return n.Data + "#" + id
		}
		return fmt.Sprintf("%s[id=%q]", n.Data, id)
	}

	var steps []string
	for c := n; c != nil && c.Type == html.ElementNode; c = c.Parent {
		steps = append(steps, fmt.Sprintf("%s:nth-of-type(%d)", c.Data, nthOfType(c)))
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return strings.Join(steps, " > ")
}

func nthOfType(n *html.Node) int {
	k := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && s.Data == n.Data {
			k++
		}
	}
	return k
}
