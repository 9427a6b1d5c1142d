package reqdiff

import (
	"testing"
)

func TestCompareIdenticalListsAllContext(t *testing.T) {
	reqs := []string{"1. Provide support", "2. Deliver on time"}
	lines := Compare(reqs, reqs)
	if Changed(lines) {
		t.Fatalf("identical lists must not report changes: %+v", lines)
	}
	if len(lines) != 2 {
		t.Fatalf("line count: %d", len(lines))
	}
	for _, line := range lines {
		if line.Type != LineContext {
			t.Fatalf("unexpected %s line: %q", line.Type, line.Text)
		}
	}
}

func TestCompareEditedRequirement(t *testing.T) {
	committed := []string{"1. Provide support", "2. Deliver on time"}
	staged := []string{"1. Provide 24/7 support", "2. Deliver on time"}
	lines := Compare(committed, staged)
	if !Changed(lines) {
		t.Fatalf("edit not detected")
	}
	var removed, added []string
	for _, line := range lines {
		switch line.Type {
		case LineRemoved:
			removed = append(removed, line.Text)
		case LineAdded:
			added = append(added, line.Text)
		}
	}
	if len(removed) != 1 || removed[0] != "1. Provide support" {
		t.Fatalf("removed: %v", removed)
	}
	if len(added) != 1 || added[0] != "1. Provide 24/7 support" {
		t.Fatalf("added: %v", added)
	}
}

func TestCompareEmptyAgainstStaged(t *testing.T) {
	lines := Compare(nil, []string{"1. New requirement"})
	if len(lines) != 1 || lines[0].Type != LineAdded {
		t.Fatalf("lines: %+v", lines)
	}
}

func TestRenderMarkers(t *testing.T) {
	out := Render([]Line{
		{Type: LineContext, Text: "kept"},
		{Type: LineRemoved, Text: "old"},
		{Type: LineAdded, Text: "new"},
	})
	want := "  kept\n- old\n+ new\n"
	if out != want {
		t.Fatalf("rendered:\n%s\nwant:\n%s", out, want)
	}
}
