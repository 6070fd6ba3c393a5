package license

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrorCode is the derived code for a malformed machine identifier.
const ErrorCode = "ERROR"

// maxOperand bounds parsed identifier parts so every intermediate value in
// DeriveCode stays an exact integer (below 2^53) on both sides of the wire.
const maxOperand = 99_999_999_999_999

// ParseMachineID splits an identifier into its two integer parts.
//
// Surrounding whitespace is trimmed and the string must split on "-" into
// exactly two parts. Each part is read like parseInt(part, 10): leading
// whitespace and an optional sign are skipped, then the leading decimal
// digits are used and anything after them is ignored. A part with no
// leading digits, or one beyond maxOperand, fails.
func ParseMachineID(mc string) (a, b int64, ok bool) {
	parts := strings.Split(strings.TrimFunc(mc, isSpace), "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, ok = parseIntPrefix(parts[0])
	if !ok {
		return 0, 0, false
	}
	b, ok = parseIntPrefix(parts[1])
	if !ok {
		return 0, 0, false
	}
	return a, b, true
}

// isSpace matches the whitespace a browser's trim and parseInt skip, which
// includes the byte order mark but not NEL.
func isSpace(r rune) bool {
	if r == '\uFEFF' {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}

func parseIntPrefix(s string) (int64, bool) {
	s = strings.TrimLeftFunc(s, isSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	digits := strings.TrimLeft(s[:end], "0")
	if digits == "" {
		return 0, true
	}
	if len(digits) > 14 {
		return 0, false
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || v > maxOperand {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

// DeriveCode computes the license code for a machine identifier, or ErrorCode
// if the identifier does not parse.
//
//	P1 = (A*7 + 12345 + rev(B)*3 + sum(A)*97) mod 1000000
//	P2 = (B*11 + 67890 + rev(A)*5 + sum(B)*89) mod 1000000
//	P3 = ((P1 xor P2) + (A xor B)) mod 100000
//
// rev reverses the decimal digits of |n| and sum adds them. The xor operands are
// taken as 32-bit signed integers. The result is "%06d-%06d-%05d" of |P1|, |P2|, |P3|.
func DeriveCode(mc string) string {
	a, b, ok := ParseMachineID(mc)
	if !ok {
		return ErrorCode
	}

	revA, revB := reverseDigits(a), reverseDigits(b)
	sumA, sumB := digitSum(a), digitSum(b)

	p1 := (a*7 + 12345 + revB*3 + sumA*97) % 1_000_000
	p2 := (b*11 + 67890 + revA*5 + sumB*89) % 1_000_000
	p3 := (xor32(p1, p2) + xor32(a, b)) % 100_000

	return fmt.Sprintf("%06d-%06d-%05d", abs(p1), abs(p2), abs(p3))
}

// Verify reports whether code is the license code derived from mc.
func Verify(mc, code string) bool {
	expected := DeriveCode(mc)
	return expected != ErrorCode && expected == code
}

// reverseDigits reverses the decimal digits of |n|; reversing 100 gives 1.
func reverseDigits(n int64) int64 {
	s := []byte(strconv.FormatInt(abs(n), 10))
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	v, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func digitSum(n int64) int64 {
	var sum int64
	for _, d := range strconv.FormatInt(abs(n), 10) {
		sum += int64(d - '0')
	}
	return sum
}

func xor32(x, y int64) int64 {
	return int64(int32(x) ^ int32(y))
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
