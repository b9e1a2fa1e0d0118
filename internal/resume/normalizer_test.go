package resume

import (
	"reflect"
	"testing"
)

const sampleText = `Jane Doe
jane@example.com | 555-0100
Work Experience
Acme Corp - Senior Engineer
Led migration to Kubernetes
Education
State University, BSc Computer Science
Skills
Go, PostgreSQL, Redis`

func TestNormalizeSections(t *testing.T) {
	got := NewNormalizer().Normalize(sampleText)

	if got.Name != "Jane Doe" {
		t.Errorf("name = %q", got.Name)
	}
	if got.ContactInfo != "jane@example.com | 555-0100" {
		t.Errorf("contact = %q", got.ContactInfo)
	}
	if len(got.Experience) != 2 {
		t.Fatalf("experience entries = %d, want 2", len(got.Experience))
	}
	if got.Experience[0].Role != "Acme Corp - Senior Engineer" {
		t.Errorf("experience[0] = %q", got.Experience[0].Role)
	}
	if len(got.Education) != 1 || got.Education[0].Institution != "State University, BSc Computer Science" {
		t.Errorf("education = %+v", got.Education)
	}
	if len(got.Skills) != 1 || got.Skills[0] != "Go, PostgreSQL, Redis" {
		t.Errorf("skills = %+v", got.Skills)
	}
}

func TestNormalizeNoHeadings(t *testing.T) {
	got := NewNormalizer().Normalize("John Smith\njohn@example.com\nsome free text line")

	if got.Name != "John Smith" || got.ContactInfo != "john@example.com" {
		t.Errorf("header = %q / %q", got.Name, got.ContactInfo)
	}
	if len(got.Experience) != 0 || len(got.Education) != 0 || len(got.Skills) != 0 {
		t.Errorf("sections should be empty: %+v", got)
	}
	if got.Experience == nil || got.Education == nil || got.Skills == nil || got.Certifications == nil {
		t.Error("section slices must be non-nil after normalization")
	}
}

// 子串匹配是有意保留的启发式：正文中包含 "skills" 的行会切换小节。
func TestNormalizeSubstringHeadingHeuristic(t *testing.T) {
	text := "Jane Doe\njane@example.com\nStrong communication skills\nGo"
	got := NewNormalizer().Normalize(text)

	if len(got.Skills) != 1 || got.Skills[0] != "Go" {
		t.Errorf("expected the line after the accidental heading to land in skills, got %+v", got.Skills)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := NewNormalizer()
	first := n.Normalize(sampleText)
	second := n.Normalize(sampleText)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalize is not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	got := NewNormalizer().Normalize("")
	if got.Name != "" || len(got.Skills) != 0 {
		t.Errorf("unexpected result for empty input: %+v", got)
	}
}
