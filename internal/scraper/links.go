package scraper

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FileLink is a spreadsheet link found on the data page
type FileLink struct {
	Href      string
	Year      int
	Name      string
	Extension string
}

// FileName is the name the file is saved under, e.g. 2020.xlsx
func (l FileLink) FileName() string {
	return fmt.Sprintf("%d.%s", l.Year, l.Extension)
}

// FindFileLinks returns the href of every anchor that points at an .xls or
// .xlsx file, in document order
func FindFileLinks(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var hrefs []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			for _, attr := range n.Attr {
				if attr.Key == "href" && spreadsheetExtension(attr.Val) != "" {
					hrefs = append(hrefs, attr.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return hrefs, nil
}

// ParseFileLink matches href against {stem}{year}/{name}.{ext}. The second
// result is false for links outside the stem, non-numeric years and other
// extensions.
func ParseFileLink(href, stem string) (FileLink, bool) {
	rest, ok := strings.CutPrefix(href, stem)
	if !ok {
		return FileLink{}, false
	}

	yearPart, file, ok := strings.Cut(rest, "/")
	if !ok {
		return FileLink{}, false
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return FileLink{}, false
	}

	name, ext, ok := strings.Cut(file, ".")
	ext = strings.ToLower(ext)
	if !ok || name == "" || (ext != "xls" && ext != "xlsx") {
		return FileLink{}, false
	}

	return FileLink{Href: href, Year: year, Name: name, Extension: ext}, true
}

// spreadsheetExtension returns xls or xlsx when the segment after the first
// dot is one of them, or "" otherwise
func spreadsheetExtension(s string) string {
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return ""
	}
	switch ext := strings.ToLower(parts[1]); ext {
	case "xls", "xlsx":
		return ext
	default:
		return ""
	}
}
