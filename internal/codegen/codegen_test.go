package codegen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/galvan/internal/ast"
	"github.com/roach88/galvan/internal/parser"
	"github.com/roach88/galvan/internal/resolver"
)

func universe(t *testing.T, sources ...string) *resolver.Universe {
	t.Helper()
	files := make([]*ast.File, len(sources))
	for i, src := range sources {
		f, err := parser.ParseSource("unit.gv", src)
		require.NoError(t, err)
		files[i] = f
	}
	u, err := resolver.Build(files...)
	require.NoError(t, err)
	return u
}

func emit(t *testing.T, sources ...string) []Unit {
	t.Helper()
	units, err := Emit(universe(t, sources...))
	require.NoError(t, err)
	return units
}

func aggregate(t *testing.T, units []Unit) string {
	t.Helper()
	last := units[len(units)-1]
	require.Equal(t, AggregateUnitName, last.Name)
	return last.Content
}

func genErr(t *testing.T, src string) *GenerationError {
	t.Helper()
	_, err := Emit(universe(t, src))
	require.Error(t, err)
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	return ge
}

func render(units []Unit) string {
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = "// unit: " + u.Name + "\n" + u.Content
	}
	return strings.Join(parts, "\n")
}

// =============================================================================
// Golden output
// =============================================================================

func TestEmitGolden(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("testdata", "src", "shapes.gv"))
	require.NoError(t, err)

	units := emit(t, string(src))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "shapes", []byte(render(units)))
}

// =============================================================================
// Unit layout
// =============================================================================

func TestEmitUnitOrder(t *testing.T) {
	units := emit(t, "type B = Int\ntype A = Int\nfn f() {\n}")
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}
	assert.Equal(t, []string{"B", "A", AggregateUnitName}, names)
}

func TestEmitEmptyProgram(t *testing.T) {
	units := emit(t, "")
	require.Len(t, units, 1)
	assert.Equal(t, "type Int = i64;\ntype Float = f64;\n", units[0].Content)
}

func TestEmitAggregateNameOption(t *testing.T) {
	units, err := EmitWith(universe(t, "type A = Int"), Options{AggregateUnit: "lib"})
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "lib", units[1].Name)
}

func TestEmitIsDeterministic(t *testing.T) {
	src := "type P {\n    a: Int\n}\nfn get(self: P) -> Int {\n    self.a\n}\nmain {\n    println(1)\n}"
	u := universe(t, src)
	first, err := Emit(u)
	require.NoError(t, err)
	second, err := Emit(u)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// =============================================================================
// Type lowering
// =============================================================================

func TestLowerType(t *testing.T) {
	tests := []struct {
		in   ast.TypeElement
		want string
	}{
		{ast.Plain("Point"), "Point"},
		{ast.Array(ast.Plain("Int")), "Vec<Int>"},
		{ast.Set(ast.Plain("Int")), "std::collections::HashSet<Int>"},
		{ast.Dict(ast.Plain("String"), ast.Plain("Int")), "std::collections::HashMap<String, Int>"},
		{ast.OrderedDict(ast.Plain("String"), ast.Plain("Int")), "indexmap::IndexMap<String, Int>"},
		{ast.Tuple(ast.Plain("Int"), ast.Plain("Float")), "(Int, Float)"},
		{ast.Tuple(ast.Plain("Int")), "(Int,)"},
		{ast.Tuple(), "()"},
		{ast.Optional(ast.Array(ast.Plain("Int"))), "Option<Vec<Int>>"},
		{ast.Result(ast.Plain("Int"), ast.Plain("Error")), "Result<Int, Error>"},
		{ast.Result(ast.Plain("Int"), nil), "anyhow::Result<Int>"},
		{ast.Ref(ast.Plain("Point")), "std::sync::Arc<std::sync::Mutex<Point>>"},
		{ast.Array(ast.Ref(ast.Plain("Point"))), "Vec<std::sync::Arc<std::sync::Mutex<Point>>>"},
	}
	for _, tt := range tests {
		t.Run(ast.TypeString(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, LowerType(tt.in))
		})
	}
}

func TestLowerTypeDecls(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"struct", "type P {\n    pub a: Int\n    b: [Float]\n}", "#[derive(Debug)]\nstruct P {\n    pub a: Int,\n    b: Vec<Float>\n}\n"},
		{"empty struct", "pub type Unit {}", "#[derive(Debug)]\npub struct Unit {}\n"},
		{"tuple", "pub type T(pub Int, {String})", "#[derive(Debug)]\npub struct T(pub Int, std::collections::HashSet<String>);\n"},
		{"alias", "pub type Maybe = Int?", "pub type Maybe = Option<Int>;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units := emit(t, tt.src)
			assert.Equal(t, tt.want, units[0].Content)
		})
	}
}

// =============================================================================
// Ownership lowering
// =============================================================================

func paramText(t *testing.T, decl string) string {
	t.Helper()
	body := render(emit(t, "type Point(Int)\n"+decl+" {\n}"))
	start := strings.Index(body, "fn f(")
	require.GreaterOrEqual(t, start, 0, body)
	end := strings.Index(body[start:], ")")
	return body[start+len("fn f(") : start+end]
}

func TestParamOwnership(t *testing.T) {
	tests := []struct {
		decl string
		want string
	}{
		{"fn f(p: Point)", "p: &Point"},
		{"fn f(let p: Point)", "p: &Point"},
		{"fn f(mut p: Point)", "p: &mut Point"},
		{"fn f(ref p: Point)", "p: std::sync::Arc<std::sync::Mutex<Point>>"},
		{"fn f(n: Int)", "n: Int"},
		{"fn f(mut n: Int)", "n: &mut Int"},
		{"fn f(xs: [Int])", "xs: &Vec<Int>"},
	}
	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			assert.Equal(t, tt.want, paramText(t, tt.decl))
		})
	}
}

func TestMutAndPlainLoweringDiffer(t *testing.T) {
	mut := paramText(t, "fn f(mut p: Point)")
	plain := paramText(t, "fn f(p: Point)")
	assert.Contains(t, mut, "&mut ")
	assert.NotContains(t, plain, "&mut ")
	assert.NotEqual(t, mut, plain)
	assert.Equal(t, mut, paramText(t, "fn f(mut p: Point)"), "lowering is stable")
}

func TestReceiverOwnership(t *testing.T) {
	units := emit(t, "type P(Int)\nfn a(self: P) {\n}\nfn b(let self: P) {\n}\nfn c(mut self: P) {\n}")
	assert.Contains(t, units[0].Content, "fn a(&self) {}")
	assert.Contains(t, units[0].Content, "fn b(&self) {}")
	assert.Contains(t, units[0].Content, "fn c(&mut self) {}")
}

func TestRefReceiverRejected(t *testing.T) {
	ge := genErr(t, "type P(Int)\nfn a(ref self: P) {\n}")
	assert.Equal(t, CodeRefReceiver, ge.Code)
	assert.Equal(t, "unit.gv", ge.Unit)
}

func TestSelfOutsideReceiverPosition(t *testing.T) {
	ge := genErr(t, "fn a(self: [Int]) {\n}")
	assert.Equal(t, CodeNotAllowedHere, ge.Code)
}

func TestAssociatedFunctionsJoinTheirType(t *testing.T) {
	units := emit(t, "type Rect(Int)\nfn area(self: Rect) -> Int {\n}\nfn describe(r: Rect) {\n}")
	require.Len(t, units, 2)
	assert.Contains(t, units[0].Content, "impl Rect {\n    fn area(&self) -> Int {}\n\n    fn describe(r: &Rect) {}\n}")
	assert.NotContains(t, aggregate(t, units), "fn describe")
}

func TestBuiltinMembers(t *testing.T) {
	units := emit(t, `pub fn twice(self: Int) -> Int {
    self
}
fn add(a: Int, b: Int) -> Int {
    a
}
main {
    let x = add(1, 2)
    println(x.twice())
}`)
	require.Len(t, units, 1, "built-ins get no unit of their own")
	body := aggregate(t, units)
	assert.Contains(t, body, "pub trait IntExt {\n    fn twice(&self) -> Int;\n}\n\n"+
		"impl IntExt for Int {\n    fn twice(&self) -> Int {\n        self\n    }\n}")
	assert.Contains(t, body, "fn add(a: Int, b: Int) -> Int {\n    a\n}")
	assert.Contains(t, body, "    let x = add(1, 2);")
	assert.Contains(t, body, `    println!("{}", x.twice());`)
	assert.Less(t, strings.Index(body, "trait IntExt"), strings.Index(body, "fn add("))
}

func TestBuiltinTraitItemsDropConst(t *testing.T) {
	body := aggregate(t, emit(t, "const fn half(self: Float) -> Float {\n    self\n}"))
	assert.Contains(t, body, "trait FloatExt {\n    fn half(&self) -> Float;\n}")
	assert.NotContains(t, body, "pub trait")
	assert.NotContains(t, body, "const fn")
}

func TestSignatureModifiers(t *testing.T) {
	body := aggregate(t, emit(t, "pub const async fn f() -> Int! {\n    1\n}"))
	assert.Contains(t, body, "pub const async fn f() -> anyhow::Result<Int> {\n    1\n}")
}

// =============================================================================
// Call arguments
// =============================================================================

func mainBody(t *testing.T, decls, stmts string) string {
	t.Helper()
	body := aggregate(t, emit(t, decls+"\nmain {\n"+stmts+"\n}"))
	start := strings.Index(body, "fn main() ")
	require.GreaterOrEqual(t, start, 0, body)
	return body[start:]
}

func TestCallArguments(t *testing.T) {
	decls := "type P {\n    a: Int\n}\nfn take(p: P, n: Int) {\n}\nfn other(p: P) {\n}\nfn pick(xs: [P], n: Int) {\n}"
	tests := []struct {
		stmt string
		want string
	}{
		{"take(p, n)", "P::take(&(&p).__borrow(), (&n).__borrow().to_owned())"},
		{"take(P(a: 1), 2)", "P::take(&(P { a: 1 }), 2)"},
		{"take(mut p, mut n)", "P::take(&mut p, &mut n)"},
		{"take(ref p, n)", "P::take(::std::sync::Arc::clone(&p), (&n).__borrow().to_owned())"},
		{"take(mut p.inner, n)", "P::take(&mut p.inner, (&n).__borrow().to_owned())"},
		{"unknown(x, 1)", "unknown(&(&x).__borrow(), &(1))"},
		{"other(p.inner)", "P::other(&(p.inner))"},
		{"pick(xs, n)", "pick(&(&xs).__borrow(), (&n).__borrow().to_owned())"},
	}
	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			assert.Contains(t, mainBody(t, decls, tt.stmt), "    "+tt.want+";")
		})
	}
}

func TestCallArgumentErrors(t *testing.T) {
	tests := []struct {
		stmt string
		code string
	}{
		{"f(let x)", string(CodeNotAllowedHere)},
		{"f(mut g())", string(CodeModifierOnNonLvalue)},
		{"f(ref 1)", string(CodeModifierOnNonLvalue)},
		{"println(mut x)", string(CodeNotAllowedHere)},
	}
	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			ge := genErr(t, "main {\n    "+tt.stmt+"\n}")
			assert.Equal(t, tt.code, string(ge.Code))
		})
	}
}

func TestMemberCallResolvesUniqueMethod(t *testing.T) {
	decls := "type A(Int)\ntype B(Int)\nfn scale(self: A, by: Int) {\n}\nfn get(self: A, n: Int) {\n}\nfn get(self: B, n: Int) {\n}"
	body := mainBody(t, decls, "a.scale(k)\na.get(k)")
	assert.Contains(t, body, "a.scale((&k).__borrow().to_owned());")
	assert.Contains(t, body, "a.get(&(&k).__borrow());", "ambiguous methods fall back to borrowing")
}

func TestPrintRewriting(t *testing.T) {
	body := mainBody(t, "", "println(\"hi\")\nprint(a, b)\ndebug(p)\nprintln()")
	assert.Contains(t, body, `println!("{}", "hi");`)
	assert.Contains(t, body, `print!("{} {}", a, b);`)
	assert.Contains(t, body, `println!("{:?}", p);`)
	assert.Contains(t, body, "println!();")
}

// =============================================================================
// Statements and entries
// =============================================================================

func TestStatements(t *testing.T) {
	body := mainBody(t, "", "let a: Int = 1\nmut b = a\nref c: [Int]\nref d: Int = 2\nb = 3\nlet e")
	assert.Equal(t, "fn main() {\n"+
		"    let a: Int = 1;\n"+
		"    let mut b = a;\n"+
		"    let c: std::sync::Arc<std::sync::Mutex<Vec<Int>>>;\n"+
		"    let d: std::sync::Arc<std::sync::Mutex<Int>> = std::sync::Arc::new(std::sync::Mutex::new(2));\n"+
		"    b = 3;\n"+
		"    let e;\n"+
		"}\n", body)
}

func TestTailExpressionOnlyWithReturnType(t *testing.T) {
	body := aggregate(t, emit(t, "fn a() -> Int {\n    1\n}\nfn b() {\n    g()\n}\nfn c() -> Int {\n    let x = 1\n}"))
	assert.Contains(t, body, "fn a() -> Int {\n    1\n}")
	assert.Contains(t, body, "fn b() {\n    g();\n}")
	assert.Contains(t, body, "fn c() -> Int {\n    let x = 1;\n}")
}

func TestEntries(t *testing.T) {
	body := aggregate(t, emit(t, "async main {\n}\ntest \"Adds two numbers!\" {\n}\ntest {\n}\ntest \"adds two numbers\" {\n}"))
	assert.Contains(t, body, "async fn main() {}")
	assert.Contains(t, body, "#[test]\nfn test_adds_two_numbers() {}")
	assert.Contains(t, body, "#[test]\nfn test_2() {}")
	assert.Contains(t, body, "#[test]\nfn test_adds_two_numbers_2() {}")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello_world", slugify("  Hello,  World! "))
	assert.Equal(t, "a1_b2", slugify("a1-b2"))
	assert.Equal(t, "n", slugify("ünï"), "non-ASCII letters are dropped")
	assert.Equal(t, "", slugify("!!"))
}

func TestGenerationErrorDiagnostic(t *testing.T) {
	err := &GenerationError{Code: CodeRefReceiver, Message: "m", Unit: "a.gv"}
	d := err.ToDiagnostic()
	assert.Equal(t, "codegen", string(d.Stage))
	assert.Equal(t, CodeRefReceiver, d.Code)
	assert.Contains(t, err.Error(), "a.gv")
}
