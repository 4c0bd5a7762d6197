package rules

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnohosten/ptstem/pkg/registry"
	"github.com/mnohosten/ptstem/pkg/stemmer"
)

func builtinRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	require.NoError(t, RegisterBuiltin(reg))
	return reg
}

func TestBuiltinProfilesLoad(t *testing.T) {
	reg := builtinRegistry(t)
	assert.ElementsMatch(t, Builtin, reg.Names())
	require.NoError(t, reg.Preload())

	steps := map[string]int{"orengo": 7, "savoy": 3, "porter": 4}
	for name, n := range steps {
		p, err := reg.Resolve(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
		assert.Equal(t, n, p.StepCount(), name)
		assert.Positive(t, p.RuleCount(), name)
	}
}

func TestBuiltinStems(t *testing.T) {
	reg := builtinRegistry(t)
	engine := stemmer.NewEngine()

	tests := []struct {
		algorithm string
		word      string
		expected  string
	}{
		{"orengo", "meninas", "menin"},
		{"orengo", "gatinhos", "gat"},
		{"orengo", "felizmente", "feliz"},
		{"orengo", "lápis", "lápis"},
		{"orengo", "animais", "animal"},
		{"orengo", "cantando", "cant"},
		{"orengo", "Meninas", "menin"},
		{"orengo", "sangue", "sang"},
		// Steps chain unconditionally, so the vowel step also runs after a noun match
		{"orengo", "paciente", "pac"},
		{"orengo", "experiência", "exper"},

		{"savoy", "meninas", "menin"},
		{"savoy", "cantores", "cantor"},
		{"savoy", "bonitinha", "bonitinh"},
		{"savoy", "pães", "pão"},
		{"savoy", "rapidamente", "rapid"},
		{"savoy", "sol", "sol"},

		{"porter", "meninas", "menin"},
		{"porter", "felizmente", "feliz"},
		{"porter", "correndo", "corr"},
		{"porter", "organizações", "organiz"},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm+"/"+tt.word, func(t *testing.T) {
			p, err := reg.Resolve(tt.algorithm)
			require.NoError(t, err)
			got, err := engine.Stem(tt.word, p)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestOrengoTrace(t *testing.T) {
	reg := builtinRegistry(t)
	p, err := reg.Resolve("orengo")
	require.NoError(t, err)

	trace, err := stemmer.NewEngine().Explain("gatinhos", p)
	require.NoError(t, err)
	require.Len(t, trace.Steps, 7)

	assert.Equal(t, "plural", trace.Steps[0].Step)
	assert.Equal(t, "gatinho", trace.Steps[0].Output)
	assert.Equal(t, "s", trace.Steps[0].Suffix)

	assert.Equal(t, "augmentative_diminutive", trace.Steps[2].Step)
	assert.Equal(t, "inho", trace.Steps[2].Suffix)
	assert.Equal(t, "gat", trace.Stem)
}

// A rule is unreachable when an earlier rule in a stop-on-match step has a
// suffix that ends its own, a guard no stricter, and no exception word that
// would let the later rule fire.
func shadowedBy(earlier, later stemmer.Rule) bool {
	if !strings.HasSuffix(later.Suffix, earlier.Suffix) {
		return false
	}
	extra := utf8.RuneCountInString(later.Suffix) - utf8.RuneCountInString(earlier.Suffix)
	if earlier.MinStemLength > later.MinStemLength+extra {
		return false
	}
	for _, w := range earlier.Exceptions() {
		if later.Matches(w) {
			return false
		}
	}
	return true
}

func TestBuiltinRulesReachable(t *testing.T) {
	reg := builtinRegistry(t)

	for _, name := range Builtin {
		p, err := reg.Resolve(name)
		require.NoError(t, err)

		for _, step := range p.Steps() {
			if step.Policy == stemmer.PolicyContinue {
				continue
			}
			for j, later := range step.Rules {
				for i := 0; i < j; i++ {
					assert.False(t, shadowedBy(step.Rules[i], later),
						"%s/%s: rule %q (#%d) shadowed by %q (#%d)", name, step.Name, later.Suffix, j, step.Rules[i].Suffix, i)
				}
			}
		}
	}
}

func TestShadowedBy(t *testing.T) {
	assert.True(t, shadowedBy(stemmer.NewRule("e", 3, ""), stemmer.NewRule("gue", 3, "g")))
	assert.False(t, shadowedBy(stemmer.NewRule("gue", 3, "g"), stemmer.NewRule("e", 3, "")))
	assert.False(t, shadowedBy(stemmer.NewRule("e", 6, ""), stemmer.NewRule("gue", 3, "g")))
	assert.False(t, shadowedBy(stemmer.NewRule("e", 3, "", "sangue"), stemmer.NewRule("gue", 3, "g")))
}
