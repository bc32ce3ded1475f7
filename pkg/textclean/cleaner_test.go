package textclean

import (
	"context"
	"errors"
	"testing"
)

type fakeCorpus struct {
	words []string
	err   error
	calls int
}

func (f *fakeCorpus) Words(context.Context, string) ([]string, error) {
	f.calls++
	return f.words, f.err
}

func fitted(t *testing.T, opts Options, options ...Option) *Cleaner {
	t.Helper()
	return New(opts, options...).Fit(context.Background(), nil)
}

func TestTransform_Defaults(t *testing.T) {
	c := fitted(t, DefaultOptions())
	got := c.Transform(Strings([]string{"The Food was AMAZING!! 10/10"}))
	if got[0] != "food amazing" {
		t.Errorf("Transform = %q, want %q", got[0], "food amazing")
	}
}

func TestTransform_KeepStopwords(t *testing.T) {
	opts := DefaultOptions()
	opts.RemoveStopwords = false
	c := fitted(t, opts)
	got := c.Transform(Strings([]string{"The Food was AMAZING!! 10/10"}))
	if got[0] != "the food was amazing" {
		t.Errorf("Transform = %q, want %q", got[0], "the food was amazing")
	}
}

func TestTransform_Stemming(t *testing.T) {
	opts := DefaultOptions()
	opts.UseStemming = true
	c := fitted(t, opts)
	if c.Status().Stemmer != StemmerReady {
		t.Fatalf("Stemmer = %v, want ready", c.Status().Stemmer)
	}
	got := c.Transform(Strings([]string{"running runner runs"}))
	if got[0] != "run runner run" {
		t.Errorf("Transform = %q, want %q", got[0], "run runner run")
	}
}

func TestTransform_StemmedTokensNotLonger(t *testing.T) {
	opts := DefaultOptions()
	opts.UseStemming = true
	opts.RemoveStopwords = false
	c := fitted(t, opts)
	for _, w := range []string{"running", "generously", "tasted", "waiters", "service"} {
		got := c.CleanString(w)
		if len(got) > len(w) {
			t.Errorf("stem(%q) = %q is longer than the input", w, got)
		}
	}
}

func TestTransform_Empty(t *testing.T) {
	configs := []Options{
		DefaultOptions(),
		{},
		{Lowercase: true, UseStemming: true, MinWordLen: 5},
	}
	for _, opts := range configs {
		c := fitted(t, opts)
		if got := c.Transform(nil); len(got) != 0 {
			t.Errorf("Transform(nil) with %+v = %v, want empty", opts, got)
		}
		if got := c.Transform([]*string{}); len(got) != 0 {
			t.Errorf("Transform([]) with %+v = %v, want empty", opts, got)
		}
	}
}

func TestTransform_LengthAndOrder(t *testing.T) {
	c := fitted(t, DefaultOptions())
	in := []*string{
		ptr("Great pizza"),
		nil,
		ptr("!!!"),
		ptr("Terrible service, never again"),
	}
	got := c.Transform(in)
	want := []string{"great pizza", "", "", "terrible service"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("out[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTransform_Idempotent(t *testing.T) {
	for _, opts := range []Options{DefaultOptions(), {Lowercase: true, RemovePunctNum: true, MinWordLen: 3}} {
		c := fitted(t, opts)
		in := Strings([]string{
			"The Food was AMAZING!! 10/10",
			"  Crust   is not\tgood. ",
			"Wow... Loved this place.",
		})
		once := c.Transform(in)
		twice := c.Transform(Strings(once))
		for i := range once {
			if once[i] != twice[i] {
				t.Errorf("opts %+v: second pass changed %q to %q", opts, once[i], twice[i])
			}
		}
	}
}

func TestTransform_MinWordLen(t *testing.T) {
	opts := Options{MinWordLen: 3}
	c := fitted(t, opts)
	got := c.CleanString("a an the food")
	if got != "the food" {
		t.Errorf("CleanString = %q, want %q", got, "the food")
	}
}

func TestTransform_MixedCaseStopwordsSurviveWithoutLowercase(t *testing.T) {
	opts := DefaultOptions()
	opts.Lowercase = false
	c := fitted(t, opts)
	got := c.CleanString("The food was great")
	if got != "The food great" {
		t.Errorf("CleanString = %q, want %q", got, "The food great")
	}
}

func TestTransform_KeepsPunctuationWhenDisabled(t *testing.T) {
	opts := Options{Lowercase: true, MinWordLen: 1}
	c := fitted(t, opts)
	got := c.CleanString("Great   Food!!  10/10")
	if got != "great food!! 10/10" {
		t.Errorf("CleanString = %q, want %q", got, "great food!! 10/10")
	}
}

func TestTransform_NonASCIILettersRemoved(t *testing.T) {
	c := fitted(t, Options{RemovePunctNum: true, MinWordLen: 1})
	if got := c.CleanString("café olé"); got != "caf ol" {
		t.Errorf("CleanString = %q, want %q", got, "caf ol")
	}
}

func TestTransform_WithoutFit(t *testing.T) {
	c := New(DefaultOptions())
	got := c.CleanString("The food was great")
	if got != "the food was great" {
		t.Errorf("CleanString before Fit = %q, want stopwords kept", got)
	}
}

func TestFit_ExtendedCorpus(t *testing.T) {
	corpus := &fakeCorpus{words: []string{"Food", " wasn't ", ""}}
	c := fitted(t, DefaultOptions(), WithCorpus(corpus))

	st := c.Status()
	if st.Stopwords != StopwordsExtended {
		t.Errorf("Stopwords = %v, want extended", st.Stopwords)
	}
	if st.StopwordCount != len(builtinStopwords)+2 {
		t.Errorf("StopwordCount = %d, want %d", st.StopwordCount, len(builtinStopwords)+2)
	}
	if got := c.CleanString("The Food was AMAZING"); got != "amazing" {
		t.Errorf("CleanString = %q, want %q", got, "amazing")
	}
}

func TestFit_CorpusFailureFallsBack(t *testing.T) {
	corpus := &fakeCorpus{err: errors.New("network down")}
	c := fitted(t, DefaultOptions(), WithCorpus(corpus))

	st := c.Status()
	if st.Stopwords != StopwordsBuiltin {
		t.Errorf("Stopwords = %v, want builtin", st.Stopwords)
	}
	if st.CorpusErr == nil || !st.Degraded() {
		t.Error("expected corpus error to be reported")
	}
	if got := c.CleanString("The Food was AMAZING!! 10/10"); got != "food amazing" {
		t.Errorf("CleanString = %q, want %q", got, "food amazing")
	}
}

func TestFit_OnlyOnce(t *testing.T) {
	corpus := &fakeCorpus{err: errors.New("offline")}
	factoryCalls := 0
	opts := DefaultOptions()
	opts.UseStemming = true
	c := New(opts, WithCorpus(corpus), WithStemmer(func() (Stemmer, error) {
		factoryCalls++
		return nil, errors.New("no stemmer")
	}))

	ctx := context.Background()
	if c.Fit(ctx, nil) != c {
		t.Fatal("Fit did not return the cleaner")
	}
	c.Fit(ctx, nil)

	if corpus.calls != 1 {
		t.Errorf("corpus calls = %d, want 1", corpus.calls)
	}
	if factoryCalls != 1 {
		t.Errorf("stemmer factory calls = %d, want 1", factoryCalls)
	}
}

func TestFit_StemmerFailureDisablesStemming(t *testing.T) {
	opts := DefaultOptions()
	opts.UseStemming = true
	c := fitted(t, opts, WithStemmer(func() (Stemmer, error) {
		return nil, errors.New("broken")
	}))

	if c.Status().Stemmer != StemmerUnavailable {
		t.Errorf("Stemmer = %v, want unavailable", c.Status().Stemmer)
	}
	if got := c.CleanString("running quickly"); got != "running quickly" {
		t.Errorf("CleanString = %q, want unstemmed tokens", got)
	}
}

func TestFit_DisabledResourcesStayAbsent(t *testing.T) {
	corpus := &fakeCorpus{}
	c := fitted(t, Options{Lowercase: true, MinWordLen: 2}, WithCorpus(corpus))
	st := c.Status()
	if st.Stopwords != StopwordsNone || st.Stemmer != StemmerOff {
		t.Errorf("Status = %+v, want nothing initialized", st)
	}
	if corpus.calls != 0 {
		t.Errorf("corpus calls = %d, want 0", corpus.calls)
	}
}

func TestFitTransform(t *testing.T) {
	c := New(DefaultOptions())
	got := c.FitTransform(context.Background(), Strings([]string{"The staff was friendly"}))
	if got[0] != "staff friendly" {
		t.Errorf("FitTransform = %q, want %q", got[0], "staff friendly")
	}
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{StopwordsNone.String(), "none"},
		{StopwordsBuiltin.String(), "builtin"},
		{StopwordsExtended.String(), "extended"},
		{StemmerOff.String(), "off"},
		{StemmerReady.String(), "ready"},
		{StemmerUnavailable.String(), "unavailable"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func ptr(s string) *string { return &s }
