// Package parser implements component B: a recursive-descent parser that
// turns token and raw-byte output from internal/lexer into an *ir.Program.
// It mirrors the balanced-payload slurping style of the assembler's operand
// parser: anything whose inner grammar is out of scope for this compiler
// (angle expressions, guard expressions, semantic/defect statement bodies)
// is captured as raw text rather than given its own grammar.
package parser

import (
	"strconv"
	"strings"

	"github.com/Dr-Loo/SQUINT/internal/ir"
	"github.com/Dr-Loo/SQUINT/internal/lexer"
)

// semanticOps and braidOps classify the free-form statement kinds that share
// a single raw-body grammar (§4.B); ctrl, measure and return are special-cased.
var semanticOps = map[string]bool{
	"initialize": true,
	"observe":    true,
	"transport":  true,
	"relax":      true,
}

var braidOps = map[string]bool{
	"nucleate":         true,
	"pin":              true,
	"anneal":           true,
	"evolve":           true,
	"quench":           true,
	"hysteresis_trace": true,
}

// Parser holds one token of lookahead, p.cur, over a Lexer. Most productions
// match p.cur and call advance to fetch the next one; productions that sit
// immediately in front of a raw payload deliberately skip that advance so
// the lexer's byte cursor is left exactly where the raw scan should start
// (see the Raw* method docs on Lexer).
type Parser struct {
	lex *lexer.Lexer
	cur lexer.Token
	ws  *ir.Workspace // set once parseWorkspace returns, used by qubit-target bounds checks
}

// New returns a Parser positioned at the first token of src.
func New(src string) (*Parser, error) {
	p := &Parser{lex: lexer.New(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// Parse consumes the whole source and returns the assembled Program.
func Parse(src string) (*ir.Program, error) {
	p, err := New(src)
	if err != nil {
		return nil, err
	}
	return p.ParseProgram()
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *Parser) atIdent(text string) bool {
	return p.cur.Type == lexer.Ident && p.cur.Text == text
}

func (p *Parser) errorf(format string, args ...any) error {
	return ir.NewParseError(p.cur.Line, format, args...)
}

// expect checks p.cur's type, advances past it, and returns the consumed
// token. Only safe when the token after it is always plain (punctuation or a
// fixed keyword) — never call it immediately before a raw payload.
func (p *Parser) expect(t lexer.Type) (lexer.Token, error) {
	if p.cur.Type != t {
		return lexer.Token{}, p.errorf("expected %s, got %s %q", t, p.cur.Type, p.cur.Text)
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return lexer.Token{}, err
	}
	return tok, nil
}

func (p *Parser) expectIdentText(text string) error {
	if !p.atIdent(text) {
		return p.errorf("expected %q, got %q", text, p.cur.Text)
	}
	return p.advance()
}

// ParseProgram parses `workspace { ... } kernel ... { ... }` in full.
func (p *Parser) ParseProgram() (*ir.Program, error) {
	ws, err := p.parseWorkspace()
	if err != nil {
		return nil, err
	}
	p.ws = ws
	kernel, err := p.parseKernel(ws)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != lexer.EOF {
		return nil, p.errorf("unexpected trailing input after kernel block")
	}
	return &ir.Program{Workspace: ws, Kernel: kernel}, nil
}

func (p *Parser) parseWorkspace() (*ir.Workspace, error) {
	if err := p.expectIdentText("workspace"); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}

	var qubits, cols, rows int
	var haveQubits, haveLattice bool
	var fields []ir.SemanticField
	var defects []string

	for p.cur.Type != lexer.RBrace {
		if p.cur.Type != lexer.Ident {
			return nil, p.errorf("expected workspace statement, got %s", p.cur.Type)
		}
		switch p.cur.Text {
		case "qubits":
			n, err := p.parseQubitsStmt()
			if err != nil {
				return nil, err
			}
			qubits = n
			haveQubits = true
		case "lattice":
			c, r, err := p.parseLatticeStmt()
			if err != nil {
				return nil, err
			}
			cols, rows = c, r
			haveLattice = true
		case "semantic_field":
			f, err := p.parseSemanticFieldStmt()
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		case "defect_field":
			name, err := p.parseDefectFieldStmt()
			if err != nil {
				return nil, err
			}
			defects = append(defects, name)
		default:
			return nil, p.errorf("unrecognised workspace statement %q", p.cur.Text)
		}
	}
	if !haveQubits {
		return nil, p.errorf("workspace %q is missing a qubits declaration", nameTok.Text)
	}
	if !haveLattice {
		return nil, p.errorf("workspace %q is missing a lattice declaration", nameTok.Text)
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}
	return ir.NewWorkspace(nameTok.Text, qubits, cols, rows, fields, defects), nil
}

func (p *Parser) parseQubitsStmt() (int, error) {
	if err := p.advance(); err != nil { // consume "qubits"; next is plain Ident
		return 0, err
	}
	if _, err := p.expect(lexer.Ident); err != nil { // register name, e.g. "q"
		return 0, err
	}
	if _, err := p.expect(lexer.LBracket); err != nil {
		return 0, err
	}
	numTok, err := p.expect(lexer.Number)
	if err != nil {
		return 0, err
	}
	if _, err := p.expect(lexer.RBracket); err != nil {
		return 0, err
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return 0, err
	}
	return int(numTok.Int), nil
}

func (p *Parser) parseLatticeStmt() (cols, rows int, err error) {
	if err := p.advance(); err != nil { // consume "lattice"
		return 0, 0, err
	}
	if _, err := p.expect(lexer.Ident); err != nil { // lattice name
		return 0, 0, err
	}
	if _, err := p.expect(lexer.LParen); err != nil {
		return 0, 0, err
	}
	colsTok, err := p.expect(lexer.Number)
	if err != nil {
		return 0, 0, err
	}
	if _, err := p.expect(lexer.Comma); err != nil {
		return 0, 0, err
	}
	rowsTok, err := p.expect(lexer.Number)
	if err != nil {
		return 0, 0, err
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return 0, 0, err
	}
	if err := p.expectIdentText("attach"); err != nil {
		return 0, 0, err
	}
	if _, err := p.expect(lexer.Ident); err != nil { // attach target, not load-bearing
		return 0, 0, err
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return 0, 0, err
	}
	return int(colsTok.Int), int(rowsTok.Int), nil
}

func (p *Parser) parseSemanticFieldStmt() (ir.SemanticField, error) {
	if err := p.advance(); err != nil { // consume "semantic_field"
		return ir.SemanticField{}, err
	}
	nameTok, err := p.expect(lexer.Ident)
	if err != nil {
		return ir.SemanticField{}, err
	}
	if _, err := p.expect(lexer.Colon); err != nil {
		return ir.SemanticField{}, err
	}
	kindTok, err := p.expect(lexer.Ident)
	if err != nil {
		return ir.SemanticField{}, err
	}
	var rank int
	if kindTok.Text == "tensor" {
		if _, err := p.expect(lexer.LBracket); err != nil {
			return ir.SemanticField{}, err
		}
		rankTok, err := p.expect(lexer.Number)
		if err != nil {
			return ir.SemanticField{}, err
		}
		rank = int(rankTok.Int)
		if _, err := p.expect(lexer.RBracket); err != nil {
			return ir.SemanticField{}, err
		}
	}
	if err := p.expectIdentText("on"); err != nil {
		return ir.SemanticField{}, err
	}
	if _, err := p.expect(lexer.Ident); err != nil { // lattice reference, not load-bearing
		return ir.SemanticField{}, err
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return ir.SemanticField{}, err
	}
	return ir.SemanticField{Name: nameTok.Text, Kind: kindTok.Text, TensorRank: rank}, nil
}

func (p *Parser) parseDefectFieldStmt() (string, error) {
	if err := p.advance(); err != nil { // consume "defect_field"
		return "", err
	}
	nameTok, err := p.expect(lexer.Ident)
	if err != nil {
		return "", err
	}
	if _, err := p.expect(lexer.Colon); err != nil {
		return "", err
	}
	if err := p.expectIdentText("defects"); err != nil {
		return "", err
	}
	if err := p.expectIdentText("on"); err != nil {
		return "", err
	}
	if _, err := p.expect(lexer.Ident); err != nil { // lattice reference
		return "", err
	}
	if p.cur.Type != lexer.LBrace {
		return "", p.errorf("expected '{' to open defect_field body")
	}
	// p.cur IS the '{' already; the lexer's byte cursor sits right after it,
	// which is exactly where a raw balanced scan must start. Do not advance.
	if _, err := p.lex.RawBalanced(); err != nil {
		return "", err
	}
	if err := p.advance(); err != nil { // fetch the token after the matching '}'
		return "", err
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return "", err
	}
	return nameTok.Text, nil
}

func (p *Parser) parseKernel(ws *ir.Workspace) (*ir.Kernel, error) {
	if err := p.expectIdentText("kernel"); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if err := p.expectIdentText("on"); err != nil {
		return nil, err
	}
	wsNameTok, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if wsNameTok.Text != ws.Name {
		return nil, ir.NewParseError(wsNameTok.Line,
			"kernel %q refers to undeclared workspace %q", nameTok.Text, wsNameTok.Text)
	}

	// An optional `(...)` parameter clause; its contents are not load-bearing
	// for this compiler and are captured raw like any other out-of-scope
	// inner grammar.
	if p.cur.Type == lexer.LParen {
		if _, err := p.lex.RawBalanced(); err != nil {
			return nil, err
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}

	var ops []*ir.Operation
	for p.cur.Type != lexer.RBrace {
		op, err := p.parseStatement(ws)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}

	return &ir.Kernel{Name: nameTok.Text, WorkspaceName: wsNameTok.Text, Operations: ops}, nil
}

func (p *Parser) parseStatement(ws *ir.Workspace) (*ir.Operation, error) {
	if p.cur.Type != lexer.Ident {
		return nil, p.errorf("expected statement, got %s", p.cur.Type)
	}
	switch {
	case p.cur.Text == "ctrl":
		return p.parseCtrl()
	case p.cur.Text == "measure":
		return p.parseMeasure()
	case p.cur.Text == "return":
		return p.parseGenericOp("return", ir.KindSemantic)
	case semanticOps[p.cur.Text]:
		return p.parseGenericOp(p.cur.Text, ir.KindSemantic)
	case braidOps[p.cur.Text]:
		return p.parseGenericOp(p.cur.Text, ir.KindBraid)
	default:
		return nil, p.errorf("unrecognised operation %q", p.cur.Text)
	}
}

func (p *Parser) parseQubitTarget() (int, error) {
	if p.cur.Type != lexer.Ident {
		return 0, p.errorf("expected qubit register, got %s", p.cur.Type)
	}
	if err := p.advance(); err != nil { // safe: next is always '['
		return 0, err
	}
	if _, err := p.expect(lexer.LBracket); err != nil {
		return 0, err
	}
	idxTok, err := p.expect(lexer.Number)
	if err != nil {
		return 0, err
	}
	if _, err := p.expect(lexer.RBracket); err != nil {
		return 0, err
	}
	idx := int(idxTok.Int)
	if p.ws != nil && !p.ws.InBounds(idx) {
		return 0, ir.NewParseError(idxTok.Line, "qubit index q[%d] out of range for %d-qubit register", idx, p.ws.Qubits)
	}
	return idx, nil
}

func (p *Parser) parseQubitTargets() ([]int, error) {
	first, err := p.parseQubitTarget()
	if err != nil {
		return nil, err
	}
	targets := []int{first}
	for p.cur.Type == lexer.Comma {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseQubitTarget()
		if err != nil {
			return nil, err
		}
		targets = append(targets, next)
	}
	return targets, nil
}

func (p *Parser) parseCtrl() (*ir.Operation, error) {
	line := p.cur.Line
	if err := p.advance(); err != nil { // consume "ctrl"; next is the gate name
		return nil, err
	}
	if p.cur.Type != lexer.Ident {
		return nil, p.errorf("expected gate name, got %s", p.cur.Type)
	}
	gate := p.cur.Text
	if err := p.advance(); err != nil { // next is the first qubit target's ident
		return nil, err
	}
	targets, err := p.parseQubitTargets()
	if err != nil {
		return nil, err
	}
	if len(targets) == 2 && targets[0] == targets[1] {
		return nil, ir.NewParseError(line, "ctrl %s: targets must be distinct, got q[%d] twice", gate, targets[0])
	}

	op := &ir.Operation{Kind: ir.KindQuantum, Op: "ctrl", Gate: gate, Targets: targets, Line: line}

	if p.atIdent("angle") {
		if err := p.advance(); err != nil { // next is always '='
			return nil, err
		}
		if p.cur.Type != lexer.Eq {
			return nil, p.errorf("expected %s, got %s %q", lexer.Eq, p.cur.Type, p.cur.Text)
		}
		// p.cur IS the '='; the lexer's byte cursor sits right after it,
		// where the raw angle expression starts. Do not advance.
		raw, err := p.lex.RawExprUntilKeywords([]string{"with", "unless"})
		if err != nil {
			return nil, err
		}
		op.Angle = raw
		if err := p.advance(); err != nil { // fetch "with", "unless" or ';'
			return nil, err
		}
	}

	if p.atIdent("with") {
		if err := p.advance(); err != nil { // next is always "overlay"
			return nil, err
		}
		if err := p.expectIdentText("overlay"); err != nil { // next is always '{'
			return nil, err
		}
		if _, err := p.expect(lexer.LBrace); err != nil {
			return nil, err
		}
		overlay, order, err := p.parseOverlayBlock()
		if err != nil {
			return nil, err
		}
		op.Overlay = overlay
		op.OverlayOrder = order
	}

	if p.atIdent("unless") {
		// The guard expression may contain characters the structural
		// tokenizer rejects, so raw-capture directly from here rather than
		// advancing past "unless" first.
		raw, err := p.lex.RawExprUntilKeywords(nil)
		if err != nil {
			return nil, err
		}
		op.Guard = raw
		if err := p.advance(); err != nil { // fetch the terminating ';'
			return nil, err
		}
	}

	if _, err := p.expect(lexer.Semi); err != nil {
		return nil, err
	}
	return op, nil
}

func (p *Parser) parseMeasure() (*ir.Operation, error) {
	line := p.cur.Line
	if err := p.advance(); err != nil { // consume "measure"
		return nil, err
	}
	targets, err := p.parseQubitTargets()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Arrow); err != nil {
		return nil, err
	}
	var outs []string
	for {
		nameTok, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		outs = append(outs, nameTok.Text)
		if p.cur.Type != lexer.Comma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return nil, err
	}
	return &ir.Operation{Kind: ir.KindQuantum, Op: "measure", Targets: targets, Outs: outs, Line: line}, nil
}

// parseGenericOp handles every op whose body is a free-form payload: it
// captures everything up to the terminating ';' as raw text without trying
// to understand it (§4.B).
func (p *Parser) parseGenericOp(name string, kind ir.OpKind) (*ir.Operation, error) {
	line := p.cur.Line
	// p.cur is the op-name Ident, already fetched; the lexer's byte cursor
	// sits right after the op name, exactly where the raw body starts.
	raw, err := p.lex.RawUntilSemicolon()
	if err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil { // fetch the token after the ';'
		return nil, err
	}
	return &ir.Operation{Kind: kind, Op: name, Raw: raw, Line: line}, nil
}

func (p *Parser) parseOverlayBlock() (map[string]ir.OverlayValue, []string, error) {
	overlay := map[string]ir.OverlayValue{}
	var order []string
	for p.cur.Type != lexer.RBrace {
		if p.cur.Type != lexer.Ident {
			return nil, nil, p.errorf("expected overlay key, got %s", p.cur.Type)
		}
		key := p.cur.Text
		line := p.cur.Line
		if err := p.advance(); err != nil { // next is an operator, ',' or '}', all plain
			return nil, nil, err
		}

		op := lexer.NoOp
		raw := ""
		switch p.cur.Type {
		case lexer.GE, lexer.LE, lexer.EqEq, lexer.Eq:
			op = p.cur.Type
			var err error
			raw, err = p.lex.RawValueUntil(",}")
			if err != nil {
				return nil, nil, err
			}
			if err := p.advance(); err != nil { // fetch ',' or '}'
				return nil, nil, err
			}
		}

		overlay[key] = normalizeOverlayValue(key, op, raw, line)
		order = append(order, key)

		if p.cur.Type == lexer.Comma {
			if err := p.advance(); err != nil {
				return nil, nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, nil, err
	}
	return overlay, order, nil
}

// normalizeOverlayValue performs the format-level parsing of §4.C's
// recognised-key table. It never rejects an unrecognised key or a malformed
// value outright — it tags the result and lets the overlay validator (which
// has workspace context and the strict-mode flag) decide diagnostics.
func normalizeOverlayValue(key string, op lexer.Type, raw string, line int) ir.OverlayValue {
	v := ir.OverlayValue{Key: key, Raw: raw}
	switch key {
	case "coherence_len":
		v.Kind = ir.OverlayCoherenceLen
		n, ok := parseNsInt(raw)
		if op != lexer.GE || !ok || n < 0 {
			v.Malformed = true
		}
		v.Int = n
	case "path_len":
		v.Kind = ir.OverlayPathLen
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if op != lexer.LE || err != nil || n < 0 {
			v.Malformed = true
		}
		v.Int = n
	case "damping":
		v.Kind = ir.OverlayDamping
		field, ok := parseDampingField(raw)
		if op != lexer.Eq || !ok {
			v.Malformed = true
		}
		v.Field = field
	case "braid":
		v.Kind = ir.OverlayBraid
		field := strings.TrimSpace(raw)
		if op != lexer.Eq || field == "" || !isPlainIdent(field) {
			v.Malformed = true
		}
		v.Field = field
	case "floquet_period":
		v.Kind = ir.OverlayFloquetPeriod
		n, ok := parseNsInt(raw)
		if op != lexer.Eq || !ok || n <= 0 {
			v.Malformed = true
		}
		v.Int = n
	case "cycles":
		v.Kind = ir.OverlayCycles
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if op != lexer.Eq || err != nil || n < 1 {
			v.Malformed = true
		}
		v.Int = n
	case "duty":
		v.Kind = ir.OverlayDuty
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if op != lexer.Eq || err != nil || f <= 0 || f > 1 {
			v.Malformed = true
		}
		v.Float = f
	case "phase_step":
		v.Kind = ir.OverlayPhaseStep
		f, ok := parseDegFloat(raw)
		if op != lexer.Eq || !ok {
			v.Malformed = true
		}
		v.Float = f
	case "span", "coherence_budget":
		if key == "span" {
			v.Kind = ir.OverlaySpan
		} else {
			v.Kind = ir.OverlayCoherenceBudget
		}
		// Accepted and never enforced, whatever shape the value takes.
	default:
		v.Kind = ir.OverlayUnknown
	}
	return v
}

func isPlainIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !(r == '_' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
				return false
			}
			continue
		}
		if !(r == '_' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// parseNsInt accepts "80", "80ns", or "80 ns" and returns the integer part.
func parseNsInt(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "ns")
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseDegFloat accepts "12deg", "12.5 deg", or a bare number.
func parseDegFloat(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "deg")
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseDampingField extracts IDENT from "η(Φ=IDENT)" or the ASCII spelling
// "eta(Phi=IDENT)".
func parseDampingField(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "η")
	s = strings.TrimPrefix(s, "eta")
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return "", false
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	inner = strings.TrimPrefix(inner, "Φ")
	inner = strings.TrimPrefix(inner, "Phi")
	inner = strings.TrimSpace(inner)
	if !strings.HasPrefix(inner, "=") {
		return "", false
	}
	field := strings.TrimSpace(inner[1:])
	if !isPlainIdent(field) {
		return "", false
	}
	return field, true
}
