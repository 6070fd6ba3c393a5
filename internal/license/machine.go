package license

import (
	"encoding/binary"
	"fmt"
	"net/url"
	"regexp"

	"golang.org/x/text/encoding/unicode"
)

const (
	// FallbackMachineID is used when the environment descriptors cannot be read.
	FallbackMachineID = "10000-10000"

	// hashLimit is the reduction threshold for seed hashes. The reduction is
	// applied at most once per code unit, so results can exceed it.
	hashLimit = 99999
)

// MachineIDPattern matches an identifier supplied directly through the mc parameter.
var MachineIDPattern = regexp.MustCompile(`^\d{1,5}-\d{1,5}$`)

// Params holds the query parameters that influence machine identifier derivation.
type Params struct {
	MC   string // direct override, used only if it matches MachineIDPattern
	Home string // seed component
	Ver  string // seed component
}

// ParamsFromQuery reads the mc, home and ver parameters.
func ParamsFromQuery(q url.Values) Params {
	return Params{
		MC:   q.Get("mc"),
		Home: q.Get("home"),
		Ver:  q.Get("ver"),
	}
}

// DeriveMachineID resolves a machine identifier.
//
// Resolution order (first match wins):
//  1. p.MC, if it matches MachineIDPattern, verbatim
//  2. p.Home + p.Ver as the seed, if either is non-empty
//  3. env.Platform() + env.Version() as the seed
//
// Any failure while reading the environment or hashing the seed yields
// FallbackMachineID.
func DeriveMachineID(p Params, env Env) string {
	if MachineIDPattern.MatchString(p.MC) {
		return p.MC
	}

	var seed string
	if p.Home != "" || p.Ver != "" {
		seed = p.Home + p.Ver
	} else {
		s, err := envSeed(env)
		if err != nil {
			return FallbackMachineID
		}
		seed = s
	}

	h1, h2, err := Hash(seed)
	if err != nil {
		return FallbackMachineID
	}
	return fmt.Sprintf("%d-%d", h1, h2)
}

func envSeed(env Env) (string, error) {
	if env == nil {
		return "", fmt.Errorf("no environment provider")
	}
	platform, err := env.Platform()
	if err != nil {
		return "", fmt.Errorf("platform: %w", err)
	}
	version, err := env.Version()
	if err != nil {
		return "", fmt.Errorf("version: %w", err)
	}
	return platform + version, nil
}

// Hash computes the two seed hashes over the seed's UTF-16 code units.
//
// h1 sums the code units in order; h2 sums three times each code unit over the
// reversed sequence. After every addition a total above 99999 has 99999
// subtracted from it once.
func Hash(seed string) (h1, h2 int, err error) {
	units, err := codeUnits(seed)
	if err != nil {
		return 0, 0, err
	}

	for _, u := range units {
		h1 += int(u)
		if h1 > hashLimit {
			h1 -= hashLimit
		}
	}
	for i := len(units) - 1; i >= 0; i-- {
		h2 += int(units[i]) * 3
		if h2 > hashLimit {
			h2 -= hashLimit
		}
	}
	return h1, h2, nil
}

// codeUnits splits s into UTF-16 code units. Supplementary characters become
// surrogate pairs and invalid UTF-8 becomes U+FFFD.
func codeUnits(s string) ([]uint16, error) {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	b, err := enc.Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode utf-16: %w", err)
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.BigEndian.Uint16(b[2*i:])
	}
	return units, nil
}
