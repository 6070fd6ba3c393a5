package license

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^\d{6}-\d{6}-\d{5}$`)

func TestDeriveCode_ReferenceValues(t *testing.T) {
	tests := []struct {
		mc   string
		want string
	}{
		// A=100 B=200: revA=1 revB=2 sumA=1 sumB=2
		// P1 = 700+12345+6+97 = 13148
		// P2 = 2200+67890+5+178 = 70273
		// P3 = (13148^70273)+(100^200) = 74205+172 = 74377
		{"100-200", "013148-070273-74377"},
		{"0-0", "012345-067890-80139"},
		{"99999-99999", "016700-671879-55803"},
		{"12345-54321", "137250-938361-63587"},
		{"7-8", "013097-068725-81771"},
		{"1210-3630", "022292-109493-32917"},
	}

	for _, tt := range tests {
		t.Run(tt.mc, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveCode(tt.mc))
		})
	}
}

func TestDeriveCode_Malformed(t *testing.T) {
	inputs := []string{"", "abc", "12-34-56", "12", "-5-3", "12-", "-12", "x-1", "1-y", "--"}

	for _, in := range inputs {
		t.Run(fmt.Sprintf("%q", in), func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, ErrorCode, DeriveCode(in))
			})
		})
	}
}

func TestDeriveCode_ParseIntPrefix(t *testing.T) {
	// parseInt semantics: whitespace, sign and trailing garbage
	assert.Equal(t, DeriveCode("12-34"), DeriveCode(" 12-34 "))
	assert.Equal(t, DeriveCode("12-34"), DeriveCode("12abc-34xyz"))
	assert.Equal(t, DeriveCode("12-34"), DeriveCode("+12-34"))
	assert.Equal(t, DeriveCode("12-34"), DeriveCode("0012-034"))
	assert.Equal(t, "012849-068992-81887", DeriveCode("12 - 34"))
}

func TestDeriveCode_BrowserWhitespace(t *testing.T) {
	assert.Equal(t, "012849-068992-81887", DeriveCode("\uFEFF12-34"))
	assert.Equal(t, "012849-068992-81887", DeriveCode("12-\uFEFF34\uFEFF"))
	assert.Equal(t, "012849-068992-81887", DeriveCode("\u00a012-34\u3000"))
	assert.Equal(t, ErrorCode, DeriveCode("\u008512-34"))
}

func TestDeriveCode_RejectsOversizedParts(t *testing.T) {
	assert.NotEqual(t, ErrorCode, DeriveCode("99999999999999-1"))
	assert.Equal(t, ErrorCode, DeriveCode("999999999999999-1"))
	assert.Equal(t, ErrorCode, DeriveCode("1-100000000000000"))
}

func TestDeriveCode_FormatOverDomain(t *testing.T) {
	// Sample the [0, 99999] square; every code must be 6-6-5 digits and stable.
	for a := int64(0); a <= 99999; a += 997 {
		for b := int64(0); b <= 99999; b += 1009 {
			mc := fmt.Sprintf("%d-%d", a, b)
			code := DeriveCode(mc)
			require.Regexp(t, codePattern, code, "mc=%s", mc)
			require.Equal(t, code, DeriveCode(mc), "mc=%s", mc)
		}
	}
	assert.Regexp(t, codePattern, DeriveCode("99999-0"))
	assert.Regexp(t, codePattern, DeriveCode("0-99999"))
}

func TestVerify(t *testing.T) {
	assert.True(t, Verify("100-200", "013148-070273-74377"))
	assert.False(t, Verify("100-200", "013148-070273-74378"))
	assert.False(t, Verify("100-200", ""))
	assert.False(t, Verify("bad", ErrorCode), "sentinel never verifies")
}

func TestParseMachineID(t *testing.T) {
	a, b, ok := ParseMachineID("100-200")
	require.True(t, ok)
	assert.Equal(t, int64(100), a)
	assert.Equal(t, int64(200), b)

	_, _, ok = ParseMachineID("100")
	assert.False(t, ok)
}

func TestReverseDigitsAndSum(t *testing.T) {
	assert.Equal(t, int64(1), reverseDigits(100))
	assert.Equal(t, int64(2), reverseDigits(200))
	assert.Equal(t, int64(0), reverseDigits(0))
	assert.Equal(t, int64(54321), reverseDigits(12345))
	assert.Equal(t, int64(321), reverseDigits(-123))

	assert.Equal(t, int64(1), digitSum(100))
	assert.Equal(t, int64(15), digitSum(12345))
	assert.Equal(t, int64(0), digitSum(0))
}

func TestXor32(t *testing.T) {
	assert.Equal(t, int64(74205), xor32(13148, 70273))
	assert.Equal(t, int64(172), xor32(100, 200))
	// High bits are dropped like a 32-bit signed view.
	assert.Equal(t, int64(-2147483648), xor32(1<<31, 0))
	assert.Equal(t, int64(0), xor32(1<<32, 0))
}
