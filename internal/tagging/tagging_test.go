package tagging

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "no match",
			text: "Leadership Roundtable",
			want: []string{},
		},
		{
			name: "case insensitive",
			text: "Cloud SIEM Tuning",
			want: []string{"Cloud Security (CySA+)", "Threat & Security Monitoring (CySA+)"},
		},
		{
			name: "two keywords same label",
			text: "Incident Response Playbooks",
			want: []string{"Incident Response (CySA+)"},
		},
		{
			name: "description text counts too",
			text: "Tuesday session A walkthrough of phishing kits",
			want: []string{"Threat & Vulnerability Management (CySA+)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_SortedAndOrderIndependent(t *testing.T) {
	a := Classify("threat detection in the cloud after an attack")
	b := Classify("attack in the cloud, detection of threat")

	assert.True(t, sort.StringsAreSorted(a))
	assert.Equal(t, a, b)
	assert.Len(t, a, 4)
}
