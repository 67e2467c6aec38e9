package parser

import (
	"testing"

	"github.com/AnthraxisBR/physlang/ast"
	"github.com/AnthraxisBR/physlang/diagnostic"
)

func parseSrc(t *testing.T, src string) (*ast.Program, *diagnostic.Bag) {
	t.Helper()
	bag := diagnostic.NewBag(50, false)
	p := New("t.phys", src, bag)
	prog := p.Parse()
	return prog, bag
}

func TestParseParticleDecl(t *testing.T) {
	prog, bag := parseSrc(t, `particle a at (0, 0) mass 2;`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.All())
	}
	if len(prog.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(prog.Items))
	}
	decl, ok := prog.Items[0].(*ast.ParticleDecl)
	if !ok {
		t.Fatalf("item is %T, want *ast.ParticleDecl", prog.Items[0])
	}
	if decl.Name != "a" {
		t.Errorf("Name = %q, want %q", decl.Name, "a")
	}
}

func TestParseForceGravity(t *testing.T) {
	src := `particle a at (0, 0) mass 1;
particle b at (1, 0) mass 1;
force gravity(a, b) G=1;`
	prog, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.All())
	}
	if len(prog.Items) != 3 {
		t.Fatalf("len(Items) = %d, want 3", len(prog.Items))
	}
	force, ok := prog.Items[2].(*ast.ForceDecl)
	if !ok {
		t.Fatalf("item is %T, want *ast.ForceDecl", prog.Items[2])
	}
	if force.Kind != ast.ForceGravity {
		t.Errorf("Kind = %v, want ForceGravity", force.Kind)
	}
}

func TestParseForceSpring(t *testing.T) {
	src := `force spring(a, b) k=4 rest=1;`
	prog, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.All())
	}
	force := prog.Items[0].(*ast.ForceDecl)
	if force.Kind != ast.ForceSpring {
		t.Errorf("Kind = %v, want ForceSpring", force.Kind)
	}
	if force.K == nil || force.Rest == nil {
		t.Errorf("K/Rest not populated")
	}
}

func TestParseWellDecl(t *testing.T) {
	src := `well on a if distance(a, b) < 1 depth 5;`
	prog, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.All())
	}
	well, ok := prog.Items[0].(*ast.WellDecl)
	if !ok {
		t.Fatalf("item is %T, want *ast.WellDecl", prog.Items[0])
	}
	if _, ok := well.Threshold.(*ast.CompareOp); !ok {
		t.Errorf("Threshold is %T, want *ast.CompareOp", well.Threshold)
	}
}

func TestParseLoopDecl(t *testing.T) {
	src := `loop for 10 cycles with frequency 1 damping 0.1 on a {
	push(a) magnitude 1 direction (1, 0);
};`
	prog, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.All())
	}
	loop, ok := prog.Items[0].(*ast.LoopDecl)
	if !ok {
		t.Fatalf("item is %T, want *ast.LoopDecl", prog.Items[0])
	}
	if loop.Kind != ast.LoopForCycles {
		t.Errorf("Kind = %v, want LoopForCycles", loop.Kind)
	}
	if len(loop.Body) != 1 {
		t.Fatalf("len(Body) = %d, want 1", len(loop.Body))
	}
}

func TestParseLoopWhile(t *testing.T) {
	src := `loop while 1 with frequency 1 damping 0 on a {
};`
	_, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.All())
	}
}

func TestParseSimulateAndDetect(t *testing.T) {
	src := `simulate dt 0.01 steps 100;
detect d = distance(a, b);
detect p = position(a);
detect s = speed(a);`
	prog, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.All())
	}
	if len(prog.Items) != 4 {
		t.Fatalf("len(Items) = %d, want 4", len(prog.Items))
	}
	sim, ok := prog.Items[0].(*ast.SimulateDecl)
	if !ok {
		t.Fatalf("item 0 is %T, want *ast.SimulateDecl", prog.Items[0])
	}
	_ = sim
	d1 := prog.Items[1].(*ast.DetectDecl)
	if d1.Kind != ast.DetectDistance {
		t.Errorf("d1.Kind = %v, want DetectDistance", d1.Kind)
	}
	d2 := prog.Items[2].(*ast.DetectDecl)
	if d2.Kind != ast.DetectPositionX {
		t.Errorf("d2.Kind = %v, want DetectPositionX", d2.Kind)
	}
	d3 := prog.Items[3].(*ast.DetectDecl)
	if d3.Kind != ast.DetectSpeed {
		t.Errorf("d3.Kind = %v, want DetectSpeed", d3.Kind)
	}
}

func TestParseLetAndFn(t *testing.T) {
	src := `let g = 9.8;
fn square(x) {
	return x * x;
};
world fn apply_push(p) {
	push(p) magnitude 1 direction (0, 1);
};`
	prog, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.All())
	}
	let, ok := prog.Items[0].(*ast.LetStmt)
	if !ok || let.Name != "g" {
		t.Fatalf("item 0 = %#v, want LetStmt g", prog.Items[0])
	}
	fn, ok := prog.Items[1].(*ast.FnDecl)
	if !ok || fn.IsWorld {
		t.Fatalf("item 1 = %#v, want pure FnDecl square", prog.Items[1])
	}
	wfn, ok := prog.Items[2].(*ast.FnDecl)
	if !ok || !wfn.IsWorld {
		t.Fatalf("item 2 = %#v, want world FnDecl apply_push", prog.Items[2])
	}
}

func TestParseIfForMatch(t *testing.T) {
	src := `if 1 < 2 {
	let a = 1;
} else {
	let a = 2;
};
for i in 0..3 {
	let b = i;
};
match 1 {
	0 { let z = 0; }
	_ { let z = 1; }
};`
	_, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.All())
	}
}

func TestParseExprPrecedence(t *testing.T) {
	src := `let a = 1 + 2 * 3;`
	prog, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.All())
	}
	let := prog.Items[0].(*ast.LetStmt)
	add, ok := let.Value.(*ast.BinaryOp)
	if !ok || add.Op.String() != "+" {
		t.Fatalf("Value = %#v, want top-level +", let.Value)
	}
	if _, ok := add.Y.(*ast.BinaryOp); !ok {
		t.Errorf("rhs of + is %T, want nested * BinaryOp", add.Y)
	}
}

func TestParseFieldAccessAndBuiltins(t *testing.T) {
	src := `let a = sqrt(clamp(position(p).x, 0, 10));`
	prog, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.All())
	}
	let := prog.Items[0].(*ast.LetStmt)
	if _, ok := let.Value.(*ast.BuiltinCall); !ok {
		t.Fatalf("Value = %#v, want *ast.BuiltinCall (sqrt)", let.Value)
	}
}

func TestParseErrorRecoveryReportsMultiple(t *testing.T) {
	src := `particle a at (0 0) mass 1;
particle b at (1, 0) mass 1;`
	prog, bag := parseSrc(t, src)
	if !bag.HasErrors() {
		t.Fatalf("expected a parse error for the missing comma")
	}
	// despite the first decl's error, the second decl should still parse.
	if len(prog.Items) != 2 {
		t.Errorf("expected both particle declarations to parse, got %d items", len(prog.Items))
	}
	found := false
	for _, d := range bag.All() {
		if d.Code == "E0301" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an E0301 diagnostic, got %v", bag.All())
	}
}

func TestParseIllegalCharacterReportsE0302AndKeepsParsing(t *testing.T) {
	src := `particle a at (0, 0) mass 1; @ particle b at (1, 0) mass 1;`
	prog, bag := parseSrc(t, src)
	found := false
	for _, d := range bag.All() {
		if d.Code == "E0302" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an E0302 diagnostic for the illegal '@', got %v", bag.All())
	}
	// the declaration after the illegal byte must still show up in the
	// tree: a stray character must not truncate the rest of the source.
	if len(prog.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2 (illegal byte must not drop the rest of the program)", len(prog.Items))
	}
	if _, ok := prog.Items[1].(*ast.ParticleDecl); !ok {
		t.Fatalf("item 1 = %T, want *ast.ParticleDecl for particle b", prog.Items[1])
	}
}

func TestParseModuleAndImport(t *testing.T) {
	src := `import "physics/base";
module demo {
	let a = 1;
};`
	prog, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.All())
	}
	imp, ok := prog.Items[0].(*ast.ImportDecl)
	if !ok || imp.Path != "physics/base" {
		t.Fatalf("item 0 = %#v, want ImportDecl", prog.Items[0])
	}
	mod, ok := prog.Items[1].(*ast.ModuleDecl)
	if !ok || mod.Name != "demo" {
		t.Fatalf("item 1 = %#v, want ModuleDecl demo", prog.Items[1])
	}
}
