package diagnostic

import (
	"bytes"
	"strings"
	"testing"

	"github.com/AnthraxisBR/physlang/token"
)

func TestBagCapsErrors(t *testing.T) {
	bag := NewBag(2, false)
	sp := token.Span{File: "f", Start: 0, End: 1}
	bag.Add(Errorf("E0001", sp, "first"))
	bag.Add(Errorf("E0001", sp, "second"))
	bag.Add(Errorf("E0001", sp, "third")) // dropped, at cap
	if bag.ErrorCount() != 2 {
		t.Fatalf("ErrorCount() = %d, want 2", bag.ErrorCount())
	}
	if !bag.AtCap() {
		t.Fatalf("AtCap() = false, want true")
	}
}

func TestBagDenyWarnings(t *testing.T) {
	sp := token.Span{File: "f", Start: 0, End: 1}

	lenient := NewBag(50, false)
	lenient.Add(Warnf("W1101", sp, "stability"))
	if lenient.HasErrors() {
		t.Fatalf("HasErrors() = true with denyWarnings=false and only a warning")
	}

	strict := NewBag(50, true)
	strict.Add(Warnf("W1101", sp, "stability"))
	if !strict.HasErrors() {
		t.Fatalf("HasErrors() = false with denyWarnings=true and a warning present")
	}
}

func TestRenderIncludesSnippetAndUnderline(t *testing.T) {
	src := "particle a at (0, 0) mass -1;"
	sp := token.Span{File: "f.phys", Start: 26, End: 28} // "-1"
	bag := NewBag(50, false)
	bag.Add(Errorf("E1002", sp, "mass must be positive").WithHelp("use a positive mass"))

	var buf bytes.Buffer
	Render(&buf, bag, map[string]string{"f.phys": src})
	out := buf.String()

	if !strings.Contains(out, "E1002") {
		t.Errorf("missing code in output:\n%s", out)
	}
	if !strings.Contains(out, "f.phys:1:27") {
		t.Errorf("missing location in output:\n%s", out)
	}
	if !strings.Contains(out, "^^") {
		t.Errorf("missing underline in output:\n%s", out)
	}
	if !strings.Contains(out, "= help: use a positive mass") {
		t.Errorf("missing help line in output:\n%s", out)
	}
}

func TestDeterministicOrder(t *testing.T) {
	sp := token.Span{File: "f", Start: 0, End: 1}
	bag := NewBag(50, false)
	bag.Add(Errorf("E0001", sp, "one"))
	bag.Add(Warnf("W1101", sp, "two"))
	bag.Add(Errorf("E0002", sp, "three"))

	got := bag.All()
	want := []string{"E0001", "W1101", "E0002"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, code := range want {
		if got[i].Code != code {
			t.Errorf("diag %d: code = %s, want %s", i, got[i].Code, code)
		}
	}
}
