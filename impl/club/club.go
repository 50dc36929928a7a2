// Package club decides auto-approval eligibility for passcode requests.
package club

import "strings"

// Policy holds the allow-list of club mail domains. The list is fixed at
// construction; membership is evaluated once, at submission.
type Policy struct {
	domains []string
}

func New(domains []string) *Policy {
	list := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimSpace(d)
		if d != "" {
			list = append(list, d)
		}
	}
	return &Policy{domains: list}
}

// IsMember reports whether the requester qualifies for immediate approval:
// the email must equal "<callsign>@<domain>" for one of the configured
// club domains, compared case-insensitively.
func (p *Policy) IsMember(callsign, email string) bool {
	for _, domain := range p.domains {
		if strings.EqualFold(email, callsign+"@"+domain) {
			return true
		}
	}
	return false
}
