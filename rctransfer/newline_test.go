package rctransfer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNewline(t *testing.T) {
	for name, want := range map[string]Newline{"cr": CR, "LF": LF, " crlf ": CRLF, "LfCr": LFCR} {
		got, err := ParseNewline(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseNewline("NEL")
	require.Error(t, err)
	assert.Equal(t, ErrConfig, err.(*Error).Type)
}

func TestNewlineSet(t *testing.T) {
	var empty NewlineSet
	assert.True(t, empty.Empty())
	assert.Equal(t, "none", empty.String())

	s := NewNewlineSet(LF, CRLF)
	assert.True(t, s.Has(LF))
	assert.True(t, s.Has(CRLF))
	assert.False(t, s.Has(CR))
	assert.Equal(t, []Newline{CRLF, LF}, s.Members(), "two-character conventions come first")
	assert.Equal(t, "CRLF,LF", s.String())
}

func TestNewlineLiterals(t *testing.T) {
	assert.Equal(t, "\r\n", CRLF.Raw())
	assert.Equal(t, "0A0D", LFCR.Hex())
	assert.Equal(t, "CR", CR.String())
}

func TestDefaultConversion(t *testing.T) {
	send := DefaultConversion(false)
	assert.True(t, send.Sources.Has(HostNewline()))
	assert.Equal(t, RemoteNewline, send.Target)

	receive := DefaultConversion(true)
	assert.True(t, receive.Sources.Has(RemoteNewline))
	assert.Equal(t, HostNewline(), receive.Target)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		text string
		conv Conversion
		want string
	}{
		{"none", "a\r\nb\n", NoConversion, "a\r\nb\n"},
		{"lf to crlf", "a\nb\n", Conversion{NewNewlineSet(LF), CRLF}, "a\r\nb\r\n"},
		{"crlf to lf", "a\r\nb", Conversion{NewNewlineSet(CRLF), LF}, "a\nb"},
		{"lfcr to crlf", "a\n\rb", Conversion{NewNewlineSet(LFCR), CRLF}, "a\r\nb"},
		{"mixed to lf", "a\r\nb\nc\r", Conversion{NewNewlineSet(CRLF, LF, CR), LF}, "a\nb\nc\n"},
		{"lone cr kept", "a\rb\r\n", Conversion{NewNewlineSet(CRLF), LF}, "a\rb\n"},
		{"cr to lf with lf present", "a\rb\n", Conversion{NewNewlineSet(CR), LF}, "a\nb\n"},
		{"ed insert", "line\n", Conversion{NewNewlineSet(LF), CR}, "line\r"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewTranslator().Translate(tt.text, tt.conv))
		})
	}
}

func TestTranslateSentinelAvoidsText(t *testing.T) {
	tr := NewTranslator()
	conv := Conversion{NewNewlineSet(CRLF), LF}

	got := tr.Translate("x\u0081y\r\n\r", conv)
	assert.Equal(t, "x\u0081y\n\r", got)
	assert.Equal(t, rune(0x82), tr.candidate, "the search result is remembered")

	// a later call starts from the remembered candidate
	assert.Equal(t, "z\n\r", tr.Translate("z\r\n\r", conv))
	assert.Equal(t, rune(0x82), tr.candidate)
}

func TestZeroTranslatorUsable(t *testing.T) {
	var tr Translator
	assert.Equal(t, "a\nb\r", tr.Translate("a\r\nb\r", Conversion{NewNewlineSet(CRLF), LF}))
}

// randomText draws n characters from alphabet.
func randomText(rng *rand.Rand, alphabet []string, n int) string {
	var b []byte
	for i := 0; i < n; i++ {
		b = append(b, alphabet[rng.Intn(len(alphabet))]...)
	}
	return string(b)
}

func TestTranslateIdempotentToItself(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	alphabet := []string{"a", " ", "\r", "\n", "\r\n", "\n\r", "\u0081", "\u0082"}
	fixed := []string{"", "\r", "\n", "\r\n", "\n\r", "\r\r\n\n", "\u0081\r\n\n\r"}

	for _, n := range []Newline{CR, LF, CRLF, LFCR} {
		conv := Conversion{NewNewlineSet(n), n}
		t.Run(n.String(), func(t *testing.T) {
			tr := NewTranslator()
			var hl HexLineTranslator
			texts := append([]string(nil), fixed...)
			for i := 0; i < 300; i++ {
				texts = append(texts, randomText(rng, alphabet, rng.Intn(40)))
			}
			for _, text := range texts {
				assert.Equal(t, text, tr.Translate(text, conv), "%q", text)

				pairs := encodeHexPairs([]byte(text))
				got, err := hl.Translate(pairs, conv)
				require.NoError(t, err)
				assert.Equal(t, pairs, got, "%q", text)
			}
		})
	}
}
