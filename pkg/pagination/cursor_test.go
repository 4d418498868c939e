package pagination

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursor_RoundTrip(t *testing.T) {
	c := Cursor{
		V:   1,
		Rh:  RequestHash("data.csv", "basic_info"),
		F:   "data.csv",
		T:   "basic_info",
		Cl:  []string{"a", "b"},
		Off: 40,
		Ps:  4096,
	}
	tok, err := EncodeCursor(c)
	require.NoError(t, err)
	// token should be url-safe base64 (no '+', '/', '=')
	require.False(t, strings.ContainsAny(tok, "+/="), tok)

	out, err := DecodeCursor(tok)
	require.NoError(t, err)
	require.Equal(t, c.Rh, out.Rh)
	require.Equal(t, c.F, out.F)
	require.Equal(t, c.T, out.T)
	require.Equal(t, c.Cl, out.Cl)
	require.Equal(t, c.Off, out.Off)
	require.Equal(t, c.Ps, out.Ps)
	require.NotZero(t, out.Iat)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	cases := []string{
		"",    // empty
		"!!!", // not base64
		base64.RawURLEncoding.EncodeToString([]byte("not-json")),
		mustB64(`{"v":1}`),
		mustB64(`{"v":1,"rh":"","f":"a.csv","t":"basic_info","off":1,"ps":10}`),
		mustB64(`{"v":1,"rh":"x","f":"","t":"basic_info","off":1,"ps":10}`),
		mustB64(`{"v":1,"rh":"x","f":"a.csv","t":"","off":1,"ps":10}`),
		mustB64(`{"v":1,"rh":"x","f":"a.csv","t":"basic_info","off":0,"ps":10}`),
		mustB64(`{"v":1,"rh":"x","f":"a.csv","t":"basic_info","off":1,"ps":0}`),
	}
	for i, tok := range cases {
		_, err := DecodeCursor(tok)
		require.Error(t, err, "case %d: token %q", i, tok)
	}
}

func TestRequestHashIsStable(t *testing.T) {
	require.Equal(t, RequestHash("a", "b"), RequestHash("a", "b"))
	require.NotEqual(t, RequestHash("ab", ""), RequestHash("a", "b"))
	require.Len(t, RequestHash("x"), 16)
}

func TestPage(t *testing.T) {
	text := "line1\nline2\nline3\nline4\n"

	page, next := Page(text, 0, 12)
	require.Equal(t, "line1\nline2\n", page)
	require.Equal(t, 2, next)

	page, next = Page(text, next, 12)
	require.Equal(t, "line3\nline4\n", page)
	require.Zero(t, next)

	// A single line larger than the budget is still returned whole.
	page, next = Page("a-very-long-line\nb\n", 0, 4)
	require.Equal(t, "a-very-long-line\n", page)
	require.Equal(t, 1, next)

	page, next = Page(text, 99, 12)
	require.Empty(t, page)
	require.Zero(t, next)

	page, next = Page("no newline", 0, 100)
	require.Equal(t, "no newline", page)
	require.Zero(t, next)
}

func FuzzDecodeCursor(f *testing.F) {
	seeds := []string{
		"", "abc", mustB64(`{"v":1}`), mustB64(`{"rh":"x"}`),
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, s string) {
		_, _ = DecodeCursor(s)
	})
}

func mustB64(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }
