package deploy

import "testing"

func TestTargetString(t *testing.T) {
	target := Target{Local: "site/index.html", Remote: "/index.html"}
	if got := target.String(); got != "[site/index.html -> /index.html]" {
		t.Errorf("unexpected string: %s", got)
	}
}

func TestTargetIsBig(t *testing.T) {
	tests := []struct {
		name      string
		target    Target
		threshold int64
		expected  bool
	}{
		{"small file", Target{TargetType: TargetTypeFile, Size: 10}, 100, false},
		{"at threshold", Target{TargetType: TargetTypeFile, Size: 100}, 100, false},
		{"over threshold", Target{TargetType: TargetTypeFile, Size: 101}, 100, true},
		{"directory", Target{TargetType: TargetTypeDirectory, Size: 4096}, 100, false},
		{"threshold disabled", Target{TargetType: TargetTypeFile, Size: 1 << 30}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.target.IsBig(tt.threshold); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestReportString(t *testing.T) {
	r := &Report{Folders: 2, Uploaded: 5, Big: 1, Failed: 0}
	if got := r.String(); got != "2 folders, 5 files uploaded (1 big), 0 failed" {
		t.Errorf("unexpected report: %s", got)
	}
}

func TestShouldSkip(t *testing.T) {
	tests := []struct {
		name     string
		skip     []string
		expected bool
	}{
		{".git", DefaultSkipNames, true},
		{".ds_store", DefaultSkipNames, true},
		{"index.html", DefaultSkipNames, false},
		{"index.html", nil, false},
		{"Drafts", []string{"drafts"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldSkip(tt.name, tt.skip); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
