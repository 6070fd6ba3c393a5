package license

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	tests := []struct {
		name   string
		seed   string
		h1, h2 int
	}{
		{"empty", "", 0, 0},
		{"ascii", "abc", 294, 882},
		{"cjk", "老王", 62348, 87045},
		// Two reductions in h2 are lazy: the total stays above 99999.
		{"lazy reduction", "\uffff\uffff", 31071, 193212},
		// Surrogate pair counts as two code units.
		{"supplementary", "\U0001F600", 12190, 136569},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h1, h2, err := Hash(tt.seed)
			require.NoError(t, err)
			assert.Equal(t, tt.h1, h1)
			assert.Equal(t, tt.h2, h2)
		})
	}
}

func TestHash_Deterministic(t *testing.T) {
	seeds := []string{"", "x", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)", "老王研究所"}
	for _, s := range seeds {
		a1, a2, err := Hash(s)
		require.NoError(t, err)
		b1, b2, err := Hash(s)
		require.NoError(t, err)
		assert.Equal(t, a1, b1)
		assert.Equal(t, a2, b2)
	}
}

func TestDeriveMachineID_ResolutionOrder(t *testing.T) {
	env := StaticEnv{PlatformValue: "Mozilla/5.0 (X11)", VersionValue: "5.0 (X11)"}

	t.Run("mc override wins", func(t *testing.T) {
		got := DeriveMachineID(Params{MC: "123-45678", Home: "home", Ver: "v1"}, env)
		assert.Equal(t, "123-45678", got)
	})

	t.Run("invalid mc is ignored", func(t *testing.T) {
		got := DeriveMachineID(Params{MC: "123456-1", Home: "home", Ver: "v1"}, env)
		assert.Equal(t, "592-1776", got)
	})

	t.Run("home and ver seed", func(t *testing.T) {
		assert.Equal(t, "592-1776", DeriveMachineID(Params{Home: "home", Ver: "v1"}, env))
	})

	t.Run("home only", func(t *testing.T) {
		assert.Equal(t, "425-1275", DeriveMachineID(Params{Home: "home"}, env))
	})

	t.Run("ver only", func(t *testing.T) {
		assert.Equal(t, "167-501", DeriveMachineID(Params{Ver: "v1"}, env))
	})

	t.Run("environment seed", func(t *testing.T) {
		assert.Equal(t, "1667-5001", DeriveMachineID(Params{}, env))
	})
}

func TestDeriveMachineID_Fallback(t *testing.T) {
	failing := StaticEnv{Err: errors.New("descriptor unavailable")}
	assert.Equal(t, FallbackMachineID, DeriveMachineID(Params{}, failing))
	assert.Equal(t, FallbackMachineID, DeriveMachineID(Params{}, nil))

	// Query seeds never touch the environment.
	assert.Equal(t, "592-1776", DeriveMachineID(Params{Home: "home", Ver: "v1"}, failing))
}

func TestUserAgentEnv(t *testing.T) {
	env := UserAgentEnv{UserAgent: "Mozilla/5.0 (X11)"}
	v, err := env.Version()
	require.NoError(t, err)
	assert.Equal(t, "5.0 (X11)", v)
	assert.Equal(t, "1667-5001", DeriveMachineID(Params{}, env))

	empty := UserAgentEnv{}
	assert.Equal(t, "0-0", DeriveMachineID(Params{}, empty))
}

func TestRuntimeEnv(t *testing.T) {
	id := DeriveMachineID(Params{}, RuntimeEnv{})
	assert.Regexp(t, `^\d+-\d+$`, id)
	assert.Equal(t, id, DeriveMachineID(Params{}, RuntimeEnv{}))
}

func TestParamsFromQuery(t *testing.T) {
	q, err := url.ParseQuery("mc=1-2&home=h&ver=v&other=x")
	require.NoError(t, err)
	assert.Equal(t, Params{MC: "1-2", Home: "h", Ver: "v"}, ParamsFromQuery(q))
	assert.Equal(t, Params{}, ParamsFromQuery(url.Values{}))
}

func TestDerivedMachineIDRoundTrip(t *testing.T) {
	mc := DeriveMachineID(Params{Home: "home", Ver: "v1"}, nil)
	code := DeriveCode(mc)
	assert.True(t, Verify(mc, code))
}
