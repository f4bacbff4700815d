package service

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	idnaProfile  = idna.Lookup
)

const (
	trackingPrefix     = "utm_"
	defaultPhoneRegion = "US"
	linkedInDomain     = "linkedin.com"
)

// Normalizer canonicalizes free-form contact and account fields.
type Normalizer struct {
	DefaultRegion string
}

// NewNormalizer builds a normalizer parsing national phone numbers in defaultRegion.
func NewNormalizer(defaultRegion string) *Normalizer {
	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if region == "" {
		region = defaultPhoneRegion
	}
	return &Normalizer{DefaultRegion: region}
}

// Email lower-cases an address and checks its syntax and domain.
func (n *Normalizer) Email(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", nil
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "", errors.New("is not a valid email address")
	}
	asciiDomain, err := idnaProfile.ToASCII(domain)
	if err != nil || asciiDomain == "" || !isDomainValid(asciiDomain) {
		return "", errors.New("has an invalid domain")
	}
	if !emailPattern.MatchString(local + "@" + asciiDomain) {
		return "", errors.New("is not a valid email address")
	}
	return email, nil
}

// Phone formats a number as E.164.
func (n *Normalizer) Phone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	number, err := phonenumbers.Parse(raw, n.DefaultRegion)
	if err != nil {
		return "", errors.New("is not a valid phone number")
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return "", errors.New("is not a valid phone number")
	}
	return phonenumbers.Format(number, phonenumbers.E164), nil
}

// LinkedIn returns an https URL on linkedin.com without tracking parameters.
func (n *Normalizer) LinkedIn(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	u, err := sanitizeURL(raw)
	if err != nil {
		return "", err
	}
	if !hostMatches(u.Hostname(), linkedInDomain) {
		return "", errors.New("must be a linkedin.com URL")
	}
	stripTracking(u)
	return u.String(), nil
}

// Website returns an https URL without tracking parameters.
func (n *Normalizer) Website(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	u, err := sanitizeURL(raw)
	if err != nil {
		return "", err
	}
	if !isDomainValid(strings.ToLower(u.Hostname())) {
		return "", errors.New("has an invalid domain")
	}
	stripTracking(u)
	return u.String(), nil
}

func hostMatches(host, domain string) bool {
	host = strings.ToLower(strings.Trim(strings.TrimSpace(host), "."))
	if host == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// sanitizeURL parses raw, defaulting to https when the scheme is missing.
// Explicit http URLs keep their scheme.
func sanitizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, errors.New("is not a valid URL")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("must use http or https")
	}
	return u, nil
}

func stripTracking(u *url.URL) {
	if u == nil {
		return
	}
	query := u.Query()
	changed := false
	for key := range query {
		if strings.HasPrefix(strings.ToLower(key), trackingPrefix) {
			query.Del(key)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
}

func isDomainValid(domain string) bool {
	if strings.Count(domain, ".") == 0 {
		return false
	}
	parts := strings.Split(domain, ".")
	for _, part := range parts {
		if part == "" || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return false
		}
	}
	return true
}
