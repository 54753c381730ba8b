package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	require.Equal(t, "hello world from murmur", Normalize(" hello\n world \tfrom  murmur ", Options{}))
	require.Empty(t, Normalize(" \n\t ", Options{CapitalizeSentences: true}))
}

func TestNormalizeSentenceCase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "sentence starts", in: "hello world. from murmur! ok? yes", want: "Hello world. From murmur! Ok? Yes"},
		{name: "pronoun i", in: "when i speak i'm clearer. i think i will keep using it.", want: "When I speak I'm clearer. I think I will keep using it."},
		{name: "abbreviation", in: "bring fruit, e.g. apples and pears", want: "Bring fruit, e.g. apples and pears"},
		{name: "title abbreviation", in: "ask dr. smith tomorrow", want: "Ask dr. smith tomorrow"},
		{name: "decimal", in: "it costs 3.50 today. thanks", want: "It costs 3.50 today. Thanks"},
		{name: "leading digit", in: "3 apples. then more", want: "3 apples. Then more"},
		{name: "quoted start", in: "\"hello there\" she said", want: "\"Hello there\" she said"},
		{name: "i inside words untouched", in: "this is it", want: "This is it"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Normalize(tc.in, Options{CapitalizeSentences: true}))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	opts := Options{CapitalizeSentences: true}
	first := Normalize("hello world. this is murmur and i like it", opts)
	require.Equal(t, first, Normalize(first, opts))
}

func TestWordCount(t *testing.T) {
	t.Parallel()

	require.Zero(t, WordCount(""))
	require.Zero(t, WordCount("   "))
	require.Equal(t, 3, WordCount(" one  two\nthree "))
}

func TestPreview(t *testing.T) {
	t.Parallel()

	require.Equal(t, "short", Preview("short", 80))
	require.Equal(t, "abc...", Preview("abcdef", 3))
	require.Equal(t, "héé...", Preview("héééé", 3))
	require.Equal(t, "anything", Preview("anything", 0))
}
