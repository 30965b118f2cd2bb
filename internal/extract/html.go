package extract

import (
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/mikey/inbox-intel/internal/core"
)

// Elements whose whole subtree never reaches the text
var droppedElements = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Meta:     true,
	atom.Link:     true,
	atom.Style:    true,
	atom.Script:   true,
	atom.Noscript: true,
	atom.Img:      true,
}

var (
	headingMarker  = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	strongMarker   = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	emphasisMarker = regexp.MustCompile(`\*([^*\n]+)\*`)
	inlineLink     = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]*)[^)]*\)`)
	escapedChar    = regexp.MustCompile("\\\\([\\\\`*_{}\\[\\]()#+\\-.!|>~])")
)

// HTMLToText converts an HTML body to readable plain text. Headings end up
// on their own lines separated by a blank line.
func HTMLToText(markup string) (string, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("%w: parsing html: %v", core.ErrExtraction, err)
	}
	prune(doc)

	var buf strings.Builder
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("%w: rendering html: %v", core.ErrExtraction, err)
	}

	markdown, err := htmltomarkdown.ConvertString(buf.String())
	if err != nil {
		return "", fmt.Errorf("%w: converting html: %v", core.ErrExtraction, err)
	}
	return markdownToText(markdown), nil
}

func prune(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && droppedElements[c.DataAtom] {
			n.RemoveChild(c)
		} else {
			prune(c)
		}
		c = next
	}
}

// markdownToText strips the inline markdown syntax the converter emits
func markdownToText(markdown string) string {
	text := headingMarker.ReplaceAllString(markdown, "")
	text = strongMarker.ReplaceAllString(text, "$2")
	text = emphasisMarker.ReplaceAllString(text, "$1")
	text = inlineLink.ReplaceAllStringFunc(text, func(link string) string {
		m := inlineLink.FindStringSubmatch(link)
		label, href := strings.TrimSpace(m[1]), m[2]
		switch {
		case href == "" || label == href:
			return label
		case label == "":
			return href
		default:
			return label + " (" + href + ")"
		}
	})
	text = escapedChar.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
