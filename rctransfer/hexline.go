package rctransfer

import (
	"encoding/hex"
	"strings"
)

// sentinelToken stands in for a translated newline. It lies outside the
// byte range, so it can never collide with a real hex pair.
const sentinelToken = -1

// HexLineTranslator converts line endings inside hex-encoded package text.
//
// The text is treated as a sequence of two-digit tokens, so a newline
// literal only matches on a pair boundary ("10D0" holds no CR). When fed
// block by block through Block, a CR that ends a block is held back if CRLF
// is a source (likewise LF for LFCR) so a pair split across two blocks is
// still recognised.
type HexLineTranslator struct {
	held []byte
}

// Translate converts a complete hex-pair string. The result is upper case.
func (h *HexLineTranslator) Translate(hexText string, c Conversion) (string, error) {
	raw, err := decodeHexPairs(hexText)
	if err != nil {
		return "", err
	}
	if c.None() {
		return strings.ToUpper(hexText), nil
	}
	return encodeHexPairs(translateTokens(raw, c)), nil
}

// Block translates one block of payload bytes. Bytes held from the previous
// block are prepended. When final is false a trailing pair prefix may be held
// for the next call.
func (h *HexLineTranslator) Block(block []byte, c Conversion, final bool) []byte {
	if c.None() {
		out := append(h.held, block...)
		h.held = nil
		return out
	}
	data := make([]byte, 0, len(h.held)+len(block))
	data = append(data, h.held...)
	data = append(data, block...)
	h.held = nil
	if !final && len(data) > 0 {
		last := data[len(data)-1]
		if (c.Sources.Has(CRLF) && last == '\r') || (c.Sources.Has(LFCR) && last == '\n') {
			h.held = []byte{last}
			data = data[:len(data)-1]
		}
	}
	return translateTokens(data, c)
}

// Pending reports whether a byte is held for the next block.
func (h *HexLineTranslator) Pending() bool {
	return len(h.held) > 0
}

// translateTokens performs the ordered source replacement on byte tokens and
// renders the sentinel as the target's bytes.
func translateTokens(data []byte, c Conversion) []byte {
	tokens := make([]int, len(data))
	for i, b := range data {
		tokens[i] = int(b)
	}
	for _, n := range c.Sources.Members() {
		tokens = replaceTokens(tokens, n.bytes())
	}
	target := c.Target.bytes()
	out := make([]byte, 0, len(tokens)+len(tokens)/8)
	for _, t := range tokens {
		if t == sentinelToken {
			out = append(out, target...)
			continue
		}
		out = append(out, byte(t))
	}
	return out
}

// replaceTokens replaces non-overlapping occurrences of pattern, scanning
// left to right, with the sentinel token.
func replaceTokens(tokens []int, pattern []byte) []int {
	out := tokens[:0:0]
	for i := 0; i < len(tokens); {
		if matchTokens(tokens[i:], pattern) {
			out = append(out, sentinelToken)
			i += len(pattern)
			continue
		}
		out = append(out, tokens[i])
		i++
	}
	return out
}

func matchTokens(tokens []int, pattern []byte) bool {
	if len(tokens) < len(pattern) {
		return false
	}
	for i, p := range pattern {
		if tokens[i] != int(p) {
			return false
		}
	}
	return true
}

// encodeHexPairs renders bytes as upper-case hex pairs.
func encodeHexPairs(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

// decodeHexPairs parses hex pairs in either case.
func decodeHexPairs(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, NewError(ErrMalformedPackage, "odd number of hex digits in payload")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, WrapError(ErrMalformedPackage, "payload is not hex encoded", err)
	}
	return b, nil
}
