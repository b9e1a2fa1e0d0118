package resume

import "testing"

func TestFormatDateRange(t *testing.T) {
	cases := []struct {
		start, end string
		want       string
	}{
		{"2020", "2023", "2020 to 2023"},
		{"2020", "", "2020"},
		{"2020", "undefined", "2020"},
		{"2020", "null", "2020"},
		{"", "2023", "N/A"},
		{"null", "2023", "N/A"},
		{"undefined", "", "N/A"},
		{"Jan 2019", "Mar 2021", "Jan 2019 to Mar 2021"},
	}
	for _, tc := range cases {
		if got := FormatDateRange(tc.start, tc.end); got != tc.want {
			t.Errorf("FormatDateRange(%q, %q) = %q, want %q", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestPruneForProviderDropsPlaceholderSkills(t *testing.T) {
	in := StructuredResume{
		Name:   "Jane Doe",
		Skills: []string{"", "  ", "Placeholder skill", "PLACEHOLDER"},
	}

	out := PruneForProvider(in)
	if out.Skills != nil {
		t.Errorf("skills should be dropped entirely, got %+v", out.Skills)
	}
	// 原始简历不受影响。
	if len(in.Skills) != 4 {
		t.Errorf("input mutated: %+v", in.Skills)
	}
}

func TestPruneForProviderKeepsMeaningfulEntries(t *testing.T) {
	in := StructuredResume{
		Skills:         []string{"", "Go"},
		Education:      []Education{{Institution: "Placeholder University"}},
		Certifications: []Certification{{Name: "CKA", Year: "2022"}},
	}

	out := PruneForProvider(in)
	if len(out.Skills) != 2 {
		t.Errorf("one meaningful skill keeps the whole array, got %+v", out.Skills)
	}
	if out.Education != nil {
		t.Errorf("placeholder-only education should be dropped, got %+v", out.Education)
	}
	if len(out.Certifications) != 1 {
		t.Errorf("certifications should be kept, got %+v", out.Certifications)
	}
}
