package crawler

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parser extracts the title, links and readable text from an HTML page.
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving relative URLs.
	baseURL *url.URL
}

// ParseResult contains everything extracted from one page.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// Links contains the absolute URLs of all anchors, in document order.
	// Scope filtering is left to the frontier.
	Links []string

	// Text is the normalized readable text. Block-level elements are
	// separated by newlines so that headings and list items form their own
	// sentences.
	Text string
}

// nonContentSelector matches subtrees that never contain readable text.
const nonContentSelector = "script, style, noscript, template, svg, iframe, object"

// blockElements emit a line break before and after their content.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Caption: true, atom.Dd: true, atom.Details: true,
	atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Fieldset: true,
	atom.Figcaption: true, atom.Figure: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Summary: true,
	atom.Table: true, atom.Td: true, atom.Th: true, atom.Title: true, atom.Tr: true,
	atom.Ul: true, atom.Option: true, atom.Button: true, atom.Label: true,
}

// NewParser creates a new HTML parser with the given base URL.
// The base URL is used to resolve relative links.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, &ParseError{URL: baseURL, Err: err}
	}
	return &Parser{baseURL: u}, nil
}

// Parse reads an HTML document and extracts its title, links and text.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := goquery.NewDocumentFromReader(content)
	if err != nil {
		return nil, &ParseError{URL: p.baseURL.String(), Err: err}
	}

	doc.Find(nonContentSelector).Remove()

	result := &ParseResult{
		Title: strings.Join(strings.Fields(doc.Find("title").First().Text()), " "),
		Links: make([]string, 0),
	}

	// A <base href> changes how relative links resolve.
	base := p.baseURL
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if u, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = p.baseURL.ResolveReference(u)
		}
	}

	doc.Find("a[href], area[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if resolved := resolveURL(base, href); resolved != "" {
			result.Links = append(result.Links, resolved)
		}
	})

	var sb strings.Builder
	for _, n := range doc.Nodes {
		flatten(&sb, n)
	}
	result.Text = NormalizeText(sb.String())

	return result, nil
}

// ParseText builds a ParseResult for plain text content. Plain text has no
// title and no links.
func ParseText(content []byte) *ParseResult {
	return &ParseResult{
		Links: make([]string, 0),
		Text:  NormalizeText(string(content)),
	}
}

// flatten writes the text content of n to sb. Block-level elements are
// surrounded by newlines; inline elements add nothing, as in rendered HTML.
func flatten(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if n.DataAtom == atom.Img {
			if alt := getAttr(n, "alt"); alt != "" {
				sb.WriteString(" " + alt + " ")
			}
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		sb.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		flatten(sb, c)
	}
	if block {
		sb.WriteByte('\n')
	}
}

// resolveURL resolves href against base. Links that can never be fetched
// (javascript:, mailto:, tel:, data:, bare fragments) resolve to "".
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
