// Package verify checks that a running wiki reports the expected software
// versions on its Special:Version page.
package verify

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sarth-shah20/mwdocker/internal/webscrape"
)

// SoftwareTable is the name of the Special:Version table listing products.
const SoftwareTable = "Installed software"

// TableReader reads the tables of a web page.
type TableReader interface {
	GetTables(ctx context.Context, url, headerTag string) (map[string][]webscrape.Record, error)
}

// anything but a dot, dots, then anything but a dot or dash
var mariaDBVersionRe = regexp.MustCompile(`([^.]+[.]+[^.-]+)`)

// MariaDBVersion reduces a version string like
// "10.11.2-MariaDB-1:10.11.2+maria~ubu2204" to "10.11". It returns "?" if
// no version is found.
func MariaDBVersion(s string) string {
	m := mariaDBVersionRe.FindStringSubmatch(s)
	if m == nil {
		return "?"
	}
	return m[1]
}

// Verifier compares a wiki's reported versions with the expected ones.
type Verifier struct {
	Reader TableReader
	// MediaWiki is the expected MediaWiki version, e.g. "1.39.15".
	MediaWiki string
	// MariaDB is the expected MariaDB version, e.g. "10.11" or "11.4".
	MariaDB string
	Out     io.Writer
	log     *zap.Logger
}

// New returns a verifier printing its check lines to out.
func New(reader TableReader, mediaWiki, mariaDB string, out io.Writer, log *zap.Logger) *Verifier {
	return &Verifier{Reader: reader, MediaWiki: mediaWiki, MariaDB: mariaDB, Out: out, log: log}
}

// CheckWiki reads the Special:Version page at url. It returns true if the
// MediaWiki version equals the expected one and the expected MariaDB
// version starts with the reported major.minor. Errors count as a failed
// check.
func (v *Verifier) CheckWiki(ctx context.Context, url string) bool {
	fmt.Fprintf(v.Out, "Checking %s ...\n", url)
	tables, err := v.Reader.GetTables(ctx, url, "h2")
	if err != nil {
		v.log.Debug("version page not readable", zap.String("url", url), zap.Error(err))
		return v.check(err.Error(), false)
	}
	software, ok := tables[SoftwareTable]
	if !v.check("Special Version accessible ...", ok) {
		return false
	}

	products := make(map[string]webscrape.Record, len(software))
	for _, r := range software {
		product := r["Product"]
		if _, dup := products[product]; !dup {
			products[product] = r
		}
	}

	mw, found := products["MediaWiki"]
	if !found {
		return v.check("MediaWiki missing in "+SoftwareTable, false)
	}
	mwVersion := mw["Version"]
	if !v.check(fmt.Sprintf("Mediawiki Version %s expected %s", mwVersion, v.MediaWiki), mwVersion == v.MediaWiki) {
		return false
	}

	db, found := products["MariaDB"]
	if !found {
		return v.check("MariaDB missing in "+SoftwareTable, false)
	}
	dbVersion := MariaDBVersion(db["Version"])
	return v.check(
		fmt.Sprintf("Maria DB Version %s fitting expected %s?", dbVersion, v.MariaDB),
		strings.HasPrefix(v.MariaDB, dbVersion),
	)
}

func (v *Verifier) check(msg string, ok bool) bool {
	marker := "❌"
	if ok {
		marker = "✅"
	}
	fmt.Fprintf(v.Out, "%s:%s\n", msg, marker)
	return ok
}
