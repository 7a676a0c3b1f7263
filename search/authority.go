package search

import (
	"net/url"
	"strings"
)

// domainWeights is a static authority table for known education and reference
// domains. Weights are policy values, not derived quantities.
var domainWeights = map[string]float64{
	"wikipedia.org":     0.95,
	"khanacademy.org":   0.95,
	"coursera.org":      0.9,
	"edx.org":           0.9,
	"mit.edu":           0.9,
	"stanford.edu":      0.9,
	"freecodecamp.org":  0.85,
	"developer.mozilla": 0.85,
	"docs.python.org":   0.85,
	"go.dev":            0.85,
	"britannica.com":    0.8,
	"medium.com":        0.55,
	"stackoverflow.com": 0.7,
	"github.com":        0.7,
	"youtube.com":       0.6,
	"reddit.com":        0.45,
}

// defaultDomainWeight applies to domains absent from the table.
const defaultDomainWeight = 0.5

// DomainWeight returns the authority weight for a result URL.
func DomainWeight(rawURL string) float64 {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return defaultDomainWeight
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	for domain, weight := range domainWeights {
		if host == domain || strings.HasSuffix(host, "."+domain) || strings.Contains(host, domain) {
			return weight
		}
	}
	return defaultDomainWeight
}
