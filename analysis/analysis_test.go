package analysis

import (
	"testing"

	"github.com/AnthraxisBR/physlang/diagnostic"
	"github.com/AnthraxisBR/physlang/elaborate"
	"github.com/AnthraxisBR/physlang/parser"
)

func run(t *testing.T, src string, opts Options) (*diagnostic.Bag, []string) {
	t.Helper()
	bag := diagnostic.NewBag(50, false)
	p := parser.New("t.phys", src, bag)
	prog := p.Parse()
	if bag.HasErrors() {
		t.Fatalf("parse errors: %v", bag.All())
	}
	w := elaborate.Elaborate(prog, bag)
	if bag.HasErrors() {
		t.Fatalf("elaborate errors: %v", bag.All())
	}
	Analyze(prog, w, bag, opts)
	var codes []string
	for _, d := range bag.All() {
		codes = append(codes, d.Code)
	}
	return bag, codes
}

func hasCode(codes []string, want string) bool {
	for _, c := range codes {
		if c == want {
			return true
		}
	}
	return false
}

func TestUnreferencedParticleProducesInfoNote(t *testing.T) {
	src := `particle lonely at (0, 0) mass 1;
particle a at (0, 0) mass 1;
particle b at (1, 0) mass 1;
force gravity(a, b) G=6.674e-11;
simulate dt 0.1 steps 10;`
	_, codes := run(t, src, Options{})
	if !hasCode(codes, "I1001") {
		t.Fatalf("expected I1001 for the unreferenced particle, got %v", codes)
	}
}

func TestFullyReferencedWorldHasNoInfoNote(t *testing.T) {
	src := `particle a at (0, 0) mass 1;
particle b at (1, 0) mass 1;
force gravity(a, b) G=6.674e-11;
simulate dt 0.1 steps 10;`
	_, codes := run(t, src, Options{})
	if hasCode(codes, "I1001") {
		t.Fatalf("did not expect I1001, got %v", codes)
	}
}

func TestStabilityWarningOnStiffSpring(t *testing.T) {
	src := `particle a at (0, 0) mass 1;
particle b at (1, 0) mass 1;
force spring(a, b) k=100000 rest=1;
simulate dt 0.01 steps 10;`
	_, codes := run(t, src, Options{})
	if !hasCode(codes, "W1101") {
		t.Fatalf("expected W1101 for an unstable spring, got %v", codes)
	}
}

func TestStabilityWarningOnLoopFrequency(t *testing.T) {
	src := `particle a at (0, 0) mass 1;
loop for 3 cycles with frequency 1000 damping 0 on a {
	push(a) magnitude 0.1 direction (1, 0);
};
simulate dt 0.1 steps 10;`
	_, codes := run(t, src, Options{})
	if !hasCode(codes, "W1102") {
		t.Fatalf("expected W1102 for a too-high loop frequency, got %v", codes)
	}
}

func TestStabilityWarningOnTinyMass(t *testing.T) {
	src := `particle a at (0, 0) mass 0.00001;
simulate dt 0.1 steps 10;`
	_, codes := run(t, src, Options{})
	if !hasCode(codes, "W1103") {
		t.Fatalf("expected W1103 for a very small mass, got %v", codes)
	}
}

func TestUnusedLetBindingWarns(t *testing.T) {
	src := `let unused = 5;
particle a at (0, 0) mass 1;
simulate dt 0.1 steps 10;`
	_, codes := run(t, src, Options{})
	if !hasCode(codes, "W1104") {
		t.Fatalf("expected W1104 for the unused let binding, got %v", codes)
	}
}

func TestUsedLetBindingDoesNotWarn(t *testing.T) {
	src := `let m = 2;
particle a at (m, 0) mass m;
simulate dt 0.1 steps 10;`
	_, codes := run(t, src, Options{})
	if hasCode(codes, "W1104") {
		t.Fatalf("did not expect W1104 for a binding that is read, got %v", codes)
	}
}

func TestDimensionalAnalysisOffByDefault(t *testing.T) {
	src := `particle a at (0, 0) mass 1;
loop while position(a).x < 5.0 with frequency 1 damping 0 on a {
	push(a) magnitude 0.3 direction (1, 0);
};
simulate dt 0.1 steps 10;`
	_, codes := run(t, src, Options{})
	for _, c := range codes {
		if c == "W1201" || c == "W1202" || c == "E1201" || c == "E1202" {
			t.Fatalf("dimensional checks should be off by default, got %v", codes)
		}
	}
}

func TestDimensionalAnalysisAcceptsConsistentGuard(t *testing.T) {
	src := `particle a at (0, 0) mass 1;
loop while position(a).x < 5.0 with frequency 1 damping 0 on a {
	push(a) magnitude 0.3 direction (1, 0);
};
simulate dt 0.1 steps 10;`
	_, codes := run(t, src, Options{CheckDimensions: true})
	if hasCode(codes, "W1202") || hasCode(codes, "E1202") {
		t.Fatalf("position(a).x < 5.0 is dimensionally consistent, got %v", codes)
	}
}
