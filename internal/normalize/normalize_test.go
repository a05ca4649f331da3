package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey_FoldsCaseAndDiacritics(t *testing.T) {
	assert.Equal(t, Key("sao paulo"), Key("São Paulo"))
	assert.Equal(t, Key("SAO PAULO "), Key("São Paulo"))
	assert.Equal(t, "enfermagem pediatrica", Key("  Enfermagem Pediátrica "))
	assert.Equal(t, "jose", Key("JOSÉ"))
}

func TestKey_Idempotent(t *testing.T) {
	inputs := []string{"São Paulo", "MANUTENÇÃO", "pg Ágape", "", "  "}
	for _, in := range inputs {
		once := Key(in)
		assert.Equal(t, once, Key(once), "key of %q", in)
	}
}

func TestKey_Empty(t *testing.T) {
	assert.Equal(t, "", Key(""))
	assert.Equal(t, "", Key("   "))
}

func TestNumericID(t *testing.T) {
	cases := map[string]string{
		"HAB-00123": "00123",
		"A-45":      "45",
		"77":        "77",
		"HABA 881":  "881",
		"hab-9":     "9",
		"HAB123":    "123",
		" 00123 ":   "00123",
		"":          "",
		"SEM ID":    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NumericID(in), "NumericID(%q)", in)
	}
}

// The prefix list is ordered longest-first: a HABA badge must not be
// truncated by the shorter HAB alternative.
func TestNumericID_LongestPrefixWins(t *testing.T) {
	assert.Equal(t, "407", NumericID("HABA-407"))
	assert.Equal(t, "407", NumericID("HAB-407"))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "11987654321", Digits("(11) 98765-4321"))
	assert.Equal(t, "", Digits("sem telefone"))
}
