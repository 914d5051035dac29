package tagging

import (
	"sort"
	"strings"
)

type rule struct {
	keyword string
	label   string
}

// Rough keyword mapping to CySA+ domains. Order matters only for readability;
// several keywords may map to the same label.
var rules = []rule{
	{"siem", "Threat & Security Monitoring (CySA+)"},
	{"detection", "Threat Detection (CySA+)"},
	{"endpoint", "Endpoint Threat Management (CySA+)"},
	{"incident", "Incident Response (CySA+)"},
	{"response", "Incident Response (CySA+)"},
	{"forensic", "Digital Forensics (CySA+)"},
	{"threat", "Threat Intelligence (CySA+)"},
	{"cloud", "Cloud Security (CySA+)"},
	{"survey", "Governance / Metrics (CySA+)"},
	{"phishing", "Threat & Vulnerability Management (CySA+)"},
	{"vulnerability", "Vulnerability Management (CySA+)"},
	{"attack", "Threat Management (CySA+)"},
}

// Classify returns the sorted, deduplicated set of labels whose keyword
// occurs in text (case-insensitive). It never returns nil.
func Classify(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	tags := make([]string, 0, 4)

	for _, r := range rules {
		if !strings.Contains(lower, r.keyword) {
			continue
		}
		if _, ok := seen[r.label]; ok {
			continue
		}
		seen[r.label] = struct{}{}
		tags = append(tags, r.label)
	}

	sort.Strings(tags)
	return tags
}
