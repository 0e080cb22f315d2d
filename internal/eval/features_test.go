package eval

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/benbeisheim/chessadvisor-backend/internal/model"
)

func equalFeatures(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestExtractStartingPosition(t *testing.T) {
	var tests = []struct {
		variant Variant
		rules   Rules
		want    []float64
	}{
		{Classic, PseudoRules, []float64{0, 20, 20, 0, 0}},
		{Extended, PseudoRules, []float64{0, 20, 20, 0, 0, 7}},
		{Extended, FullRules, []float64{0, 20, 20, 0, 0, 7}},
	}
	for _, test := range tests {
		e := NewExtractor(test.variant, test.rules)
		got, err := e.Extract(model.StartingFEN)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != e.Len() {
			t.Errorf("%s/%s: %d features, want %d", test.variant, test.rules, len(got), e.Len())
		}
		if !equalFeatures(got, test.want) {
			t.Errorf("%s/%s: features = %v, want %v", test.variant, test.rules, got, test.want)
		}
	}
}

func TestExtractDeterministic(t *testing.T) {
	fen := "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	for _, rules := range []Rules{PseudoRules, FullRules} {
		e := NewExtractor(Extended, rules)
		first, err := e.Extract(fen)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 3; i++ {
			again, _ := e.Extract(fen)
			if !equalFeatures(first, again) {
				t.Errorf("%s: run %d = %v, want %v", rules, i, again, first)
			}
		}
	}
}

func TestMaterialSign(t *testing.T) {
	var tests = []struct {
		fen  string
		want float64
	}{
		{model.StartingFEN, 0},
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNB1KBNR w KQkq - 0 1", 9.5},
		{"rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", -9.5},
		{"4k3/8/8/8/8/8/8/4K2R w - - 0 1", -5},
	}
	e := NewExtractor(Classic, PseudoRules)
	for _, test := range tests {
		features, err := e.Extract(test.fen)
		if err != nil {
			t.Fatal(err)
		}
		if features[0] != test.want {
			t.Errorf("%s: material = %v, want %v", test.fen, features[0], test.want)
		}
	}
}

func TestExtractCheckAndCenter(t *testing.T) {
	e := NewExtractor(Extended, PseudoRules)
	features, err := e.Extract("4k3/8/8/8/8/8/8/4R1K1 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if features[3] != 1 {
		t.Errorf("king safety = %v, want 1", features[3])
	}

	// A white pawn on e3 attacks d4 and f4; the one on d3 adds e4.
	features, err = e.Extract("4k3/8/8/8/8/3PP3/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if features[4] != 2 {
		t.Errorf("center control = %v, want 2", features[4])
	}
}

func TestKingDistanceWithoutKing(t *testing.T) {
	e := NewExtractor(Extended, FullRules)
	features, err := e.Extract("8/8/8/8/8/8/8/4K3 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if features[5] != 0 {
		t.Errorf("king distance = %v, want 0", features[5])
	}
	// One king missing falls back to the built-in generator.
	if features[1] != 0 || features[2] != 5 {
		t.Errorf("mobility = %v/%v, want 0/5", features[1], features[2])
	}
}

func TestFullRulesMobility(t *testing.T) {
	var tests = []struct {
		name               string
		fen                string
		pseudo, full       float64
		pseudoOpp, fullOpp float64
		checkOpp           bool // false when the side to move is in check
	}{
		{"castling", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", 24, 26, 24, 26, true},
		{"in check", "4k3/8/8/8/8/8/8/4R1K1 b - - 0 1", 5, 4, 0, 0, false},
		{"king missing", "8/8/8/8/8/8/8/4K3 b - - 0 1", 0, 0, 5, 5, true},
	}
	pseudo := NewExtractor(Extended, PseudoRules)
	full := NewExtractor(Extended, FullRules)
	for _, test := range tests {
		p, err := pseudo.Extract(test.fen)
		if err != nil {
			t.Fatal(err)
		}
		f, err := full.Extract(test.fen)
		if err != nil {
			t.Fatal(err)
		}
		if p[1] != test.pseudo || f[1] != test.full {
			t.Errorf("%s: mobility pseudo/full = %v/%v, want %v/%v", test.name, p[1], f[1], test.pseudo, test.full)
		}
		if test.checkOpp && (p[2] != test.pseudoOpp || f[2] != test.fullOpp) {
			t.Errorf("%s: opponent mobility pseudo/full = %v/%v, want %v/%v", test.name, p[2], f[2], test.pseudoOpp, test.fullOpp)
		}
		for _, i := range []int{0, 3, 4, 5} {
			if p[i] != f[i] {
				t.Errorf("%s: feature %d differs between rule sets: %v vs %v", test.name, i, p[i], f[i])
			}
		}
	}
}

func TestFullRulesFallsBackOnPanic(t *testing.T) {
	defer func(orig func(string) (int, int)) { legalMoveCounts = orig }(legalMoveCounts)
	legalMoveCounts = func(string) (int, int) { panic("bad position") }

	fen := "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"
	want, err := NewExtractor(Extended, PseudoRules).Extract(fen)
	if err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor(Extended, FullRules).Extract(fen)
	if err != nil {
		t.Fatal(err)
	}
	if !equalFeatures(got, want) {
		t.Errorf("features = %v, want pseudo-rule features %v", got, want)
	}
}

func TestExtractInvalidFEN(t *testing.T) {
	e := NewExtractor(Classic, PseudoRules)
	if _, err := e.Extract("not a position"); !errors.Is(err, model.ErrInvalidFEN) {
		t.Errorf("error = %v, want ErrInvalidFEN", err)
	}
}

func TestCastlingRights(t *testing.T) {
	var tests = []struct {
		fen  string
		want string
	}{
		{model.StartingFEN, "KQkq"},
		{"r3k3/8/8/8/8/8/8/4K2R w - - 0 1", "Kq"},
		{"4k3/8/8/8/8/8/8/3K3R w - - 0 1", "-"},
	}
	for _, test := range tests {
		board, _, err := model.ParseFEN(test.fen)
		if err != nil {
			t.Fatal(err)
		}
		if got := castlingRights(board); got != test.want {
			t.Errorf("%s: castling = %q, want %q", test.fen, got, test.want)
		}
	}
}

func TestVariantAndRulesParsing(t *testing.T) {
	if v, err := ParseVariant("classic"); err != nil || v.Len() != 5 {
		t.Errorf("classic = %v, %v", v, err)
	}
	if v, err := ParseVariant("extended"); err != nil || v.Len() != 6 {
		t.Errorf("extended = %v, %v", v, err)
	}
	if _, err := ParseVariant("deep"); err == nil {
		t.Error("unknown variant accepted")
	}
	if _, err := ParseRules("strict"); err == nil {
		t.Error("unknown rules accepted")
	}
}

func TestCheckRejectsOtherRules(t *testing.T) {
	var tests = []struct {
		model, extractor Rules
		ok               bool
	}{
		{PseudoRules, PseudoRules, true},
		{FullRules, FullRules, true},
		{PseudoRules, FullRules, false},
		{FullRules, PseudoRules, false},
	}
	for _, test := range tests {
		m := DefaultModel(Classic)
		m.Rules = test.model
		err := m.Check(NewExtractor(Classic, test.extractor))
		if test.ok && err != nil {
			t.Errorf("%s model, %s extractor: %v", test.model, test.extractor, err)
		}
		if !test.ok && !errors.Is(err, ErrModelMismatch) {
			t.Errorf("%s model, %s extractor: error = %v, want ErrModelMismatch", test.model, test.extractor, err)
		}
	}

	// A saved model keeps its rule set across a reload.
	path := filepath.Join(t.TempDir(), "full.json")
	full := DefaultModel(Extended)
	full.Rules = FullRules
	if err := full.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadModel(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := loaded.Check(NewExtractor(Extended, PseudoRules)); !errors.Is(err, ErrModelMismatch) {
		t.Errorf("reloaded full model accepted by pseudo extractor: %v", err)
	}
}

func TestLinearModel(t *testing.T) {
	m := DefaultModel(Extended)
	if err := m.Check(NewExtractor(Extended, PseudoRules)); err != nil {
		t.Errorf("default extended model: %v", err)
	}
	if err := m.Check(NewExtractor(Classic, PseudoRules)); !errors.Is(err, ErrModelMismatch) {
		t.Errorf("mismatch error = %v", err)
	}

	m = &LinearModel{Variant: Classic, Weights: []float64{1, 2, 3, 4, 5}, Bias: 0.5}
	if got := m.Score([]float64{1, 1, 1, 1, 1}); got != 15.5 {
		t.Errorf("score = %v, want 15.5", got)
	}

	path := filepath.Join(t.TempDir(), "model.json")
	if err := m.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadModel(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Rules != PseudoRules || loaded.Bias != m.Bias || !equalFeatures(loaded.Weights, m.Weights) {
		t.Errorf("loaded = %+v", loaded)
	}

	bad := &LinearModel{Variant: Extended, Weights: []float64{1}}
	if err := bad.Save(path); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadModel(path); !errors.Is(err, ErrModelMismatch) {
		t.Errorf("short model error = %v", err)
	}
}
