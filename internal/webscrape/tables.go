// Package webscrape extracts HTML tables from web pages.
package webscrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Record is one table row keyed by column header.
type Record map[string]string

// CategoryField holds the text of a spanning header cell of the table.
const CategoryField = "category"

// TableReader reads the tables of a web page.
type TableReader struct {
	Client    *http.Client
	UserAgent string
}

// NewTableReader returns a reader with a bounded request timeout.
func NewTableReader() *TableReader {
	return &TableReader{
		Client:    &http.Client{Timeout: 30 * time.Second},
		UserAgent: "Mozilla/5.0",
	}
}

// GetTables fetches url and returns its tables. See ParseTables.
func (r *TableReader) GetTables(ctx context.Context, url, headerTag string) (map[string][]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid url %s: %w", url, err)
	}
	req.Header.Set("User-Agent", r.UserAgent)

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get %s: %s", url, resp.Status)
	}
	return ParseTables(resp.Body, headerTag)
}

// ParseTables returns all tables of an HTML document.
//
// Header cells name the fields of each row. A header cell with a colspan
// is a category instead and is added to every record of the table. With a
// headerTag such as "h2" the table is named by the nearest preceding header
// of that tag, otherwise tables are named "table0", "table1", ...
func ParseTables(r io.Reader, headerTag string) (map[string][]Record, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	tables := make(map[string][]Record)
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		var fields []string
		category := ""
		table.Find("tr th").Each(func(_ int, th *goquery.Selection) {
			if _, ok := th.Attr("colspan"); ok {
				category = text(th)
				return
			}
			fields = append(fields, text(th))
		})

		var records []Record
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			record := Record{}
			tr.Find("td").Each(func(j int, td *goquery.Selection) {
				if j < len(fields) {
					record[fields[j]] = text(td)
				}
			})
			if len(record) == 0 {
				return
			}
			if category != "" {
				record[CategoryField] = category
			}
			records = append(records, record)
		})

		name := fmt.Sprintf("table%d", i)
		if headerTag != "" {
			if header := precedingHeader(table, headerTag); header != "" {
				name = header
			}
		}
		tables[name] = records
	})
	return tables, nil
}

// precedingHeader walks the previous siblings of s. Newer MediaWiki
// versions wrap headers in a div, so a header nested in a sibling counts.
func precedingHeader(s *goquery.Selection, tag string) string {
	for prev := s.Prev(); prev.Length() > 0; prev = prev.Prev() {
		if goquery.NodeName(prev) == tag {
			return text(prev)
		}
		if nested := prev.Find(tag); nested.Length() > 0 {
			return text(nested.Last())
		}
	}
	return ""
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}
