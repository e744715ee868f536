package main

import (
	"strings"
	"testing"
)

func TestLscapsCommand(t *testing.T) {
	tests := []struct {
		name             string
		size             int
		conventionalOnly bool
		wantContain      []string
		wantNotContain   []string
	}{
		{
			name: "both lists",
			size: 0x1000,
			wantContain: []string{
				"Power Management",
				"Vendor Specific",
			},
		},
		{
			name:             "conventional only",
			size:             0x1000,
			conventionalOnly: true,
			wantContain:      []string{"Power Management"},
			wantNotContain:   []string{"Vendor Specific"},
		},
		{
			name:        "header only dump",
			size:        0x40,
			wantContain: []string{"No capabilities"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestDump(t, tt.size)

			out, err := captureOutput(t, func() error {
				return runLscaps([]string{path}, tt.conventionalOnly)
			})
			if err != nil {
				t.Fatalf("runLscaps: %v", err)
			}
			mustContain(t, out, tt.wantContain)
			for _, w := range tt.wantNotContain {
				if strings.Contains(out, w) {
					t.Errorf("output should not contain %q:\n%s", w, out)
				}
			}
		})
	}
}
