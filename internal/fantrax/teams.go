package fantrax

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Team links on the standings page carry the ID either as a query
// parameter (?teamId=) or an Angular matrix parameter (;teamId=).
var teamIDPattern = regexp.MustCompile(`teamId=([A-Za-z0-9]+)`)

// DiscoverTeams scrapes the league standings page and returns every team
// in standings order.
func DiscoverTeams(ctx context.Context, c *Client) ([]Team, error) {
	html, err := c.FetchStandingsHTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching standings: %w", err)
	}

	doc, err := ParseHTML(html)
	if err != nil {
		return nil, err
	}

	return ParseTeams(doc)
}

// ParseTeams extracts teams from a rendered standings document
func ParseTeams(doc *goquery.Document) ([]Team, error) {
	var teams []Team
	seen := make(map[string]bool)

	doc.Find(`a[href*="teamId="]`).Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}

		m := teamIDPattern.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id := m[1]

		// The same team is linked several times per standings row; keep
		// the first anchor that carries a visible name.
		name := strings.TrimSpace(s.Text())
		if seen[id] || name == "" {
			return
		}

		seen[id] = true
		teams = append(teams, Team{ID: id, Name: name})
	})

	if len(teams) == 0 {
		return nil, fmt.Errorf("no team links found on standings page")
	}

	log.Printf("Discovered %d teams from standings", len(teams))
	return teams, nil
}
