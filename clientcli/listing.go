package clientcli

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// listingPage is what the client understands of a directory page.
type listingPage struct {
	entries []Entry
	// form is nil when the server has uploads disabled.
	form *uploadForm
}

type uploadForm struct {
	action string
	field  string
}

// parseListing walks the HTML of a listing page. Rows are the <tr class="entry">
// elements; the upload form is found by its id. Hrefs are resolved against
// pageURL and reported relative to basePath, the endpoint's own path prefix.
func parseListing(r io.Reader, pageURL *url.URL, basePath string) (*listingPage, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	basePath = strings.TrimSuffix(basePath, "/")
	page := &listingPage{}

	var walk func(n *html.Node) error
	walk = func(n *html.Node) error {
		if n.Type == html.ElementNode {
			switch {
			case n.DataAtom == atom.Tr && hasClass(n, "entry"):
				e, rowErr := parseRow(n, pageURL, basePath)
				if rowErr != nil {
					return rowErr
				}
				page.entries = append(page.entries, e)
				return nil
			case n.DataAtom == atom.Form && attr(n, "id") == UploadFormID:
				form, formErr := parseForm(n, pageURL)
				if formErr != nil {
					return formErr
				}
				page.form = form
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if walkErr := walk(child); walkErr != nil {
				return walkErr
			}
		}
		return nil
	}

	if err := walk(doc); err != nil {
		return nil, err
	}
	return page, nil
}

func parseRow(tr *html.Node, pageURL *url.URL, basePath string) (Entry, error) {
	link := findElement(tr, func(n *html.Node) bool { return n.DataAtom == atom.A })
	if link == nil {
		return Entry{}, fmt.Errorf("listing row without link")
	}

	href, err := pageURL.Parse(attr(link, "href"))
	if err != nil {
		return Entry{}, fmt.Errorf("row href: %w", err)
	}

	e := Entry{
		Name:  textContent(link),
		Path:  strings.TrimPrefix(href.Path, basePath),
		IsDir: attr(tr, "data-kind") == "directory",
	}
	if size := attr(tr, "data-size"); size != "" {
		if e.Size, err = strconv.ParseInt(size, 10, 64); err != nil {
			return Entry{}, fmt.Errorf("row size %q: %w", size, err)
		}
	}
	if mod := findElement(tr, func(n *html.Node) bool {
		return n.DataAtom == atom.Td && hasClass(n, "modified")
	}); mod != nil {
		e.Modified = strings.TrimSpace(textContent(mod))
	}
	return e, nil
}

func parseForm(form *html.Node, pageURL *url.URL) (*uploadForm, error) {
	action, err := pageURL.Parse(attr(form, "action"))
	if err != nil {
		return nil, fmt.Errorf("form action: %w", err)
	}

	field := DefaultUploadField
	if input := findElement(form, func(n *html.Node) bool {
		return n.DataAtom == atom.Input && strings.EqualFold(attr(n, "type"), "file")
	}); input != nil {
		if name := attr(input, "name"); name != "" {
			field = name
		}
	}

	return &uploadForm{action: action.String(), field: field}, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// findElement returns the first descendant of n matching pred, depth first.
func findElement(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && pred(child) {
			return child
		}
		if found := findElement(child, pred); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return sb.String()
}
