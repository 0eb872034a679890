package util

import "testing"

func TestWords(t *testing.T) {
	got := Words("Hey, it's café_time 42!")
	want := []string{"Hey", "it", "s", "café_time", "42"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %q want %q", i, got[i], want[i])
		}
	}
	if WordCount("Hey, it's café_time 42!") != len(want) {
		t.Fatalf("WordCount disagrees with Words")
	}
}

func TestEmojis(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"no emoji here", 0},
		{"😀😀 ok", 2},
		{"flag 🇺🇸 and 🚀", 2},
		{"heart ❤️ is outside the counted blocks", 0},
		{"thumbs 👍🏽", 1},
	}
	for _, c := range cases {
		if got := EmojiCount(c.text); got != c.want {
			t.Fatalf("%q: got %d want %d", c.text, got, c.want)
		}
		if got := len(Emojis(c.text)); got != c.want {
			t.Fatalf("%q: Emojis len %d want %d", c.text, got, c.want)
		}
	}
	if e := Emojis("🇺🇸"); len(e) != 1 || e[0] != "🇺🇸" {
		t.Fatalf("flag should be one cluster: %q", e)
	}
}

func TestCountAllAndLinks(t *testing.T) {
	if n := CountAll("lol lolol haha", []string{"lol", "haha"}); n != 3 {
		t.Fatalf("CountAll=%d", n)
	}
	if !HasLink("see https://example.com/x") || HasLink("http:/broken") {
		t.Fatalf("link detection wrong")
	}
}

func TestFold(t *testing.T) {
	if Fold("ＨＥＬＬＯ World") != "hello world" {
		t.Fatalf("Fold=%q", Fold("ＨＥＬＬＯ World"))
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	if got := NormalizeWhitespace("  what a\n\tyear  "); got != "what a year" {
		t.Fatalf("got %q", got)
	}
}
