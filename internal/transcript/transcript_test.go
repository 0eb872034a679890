package transcript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huygnguyen04/at-everyone/internal/model"
)

func TestDecodeArrayRoot(t *testing.T) {
	in := `[{"author":{"name":"a"},"content":"hi","timestamp":"2024-01-01T00:00:00Z"}, 7, "x", {"author":{"name":"b"},"content":"yo"}]`
	msgs, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Author.Name != "a" || msgs[1].Content != "yo" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestDecodeObjectRoot(t *testing.T) {
	in := `{"guild":{"id":"1","name":"g"},"channel":{"name":"c"},"messages":[
	  {"author":{"name":"a"},"content":"hi","attachments":[{"fileName":"x.PNG"}],"reactions":[{"count":2,"emoji":{"name":"👍"}}]},
	  {"author":"broken"}
	],"messageCount":2}`
	msgs, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("want 1 message, got %d", len(msgs))
	}
	if msgs[0].Attachments[0].FileName != "x.PNG" || msgs[0].Reactions[0].Count != 2 {
		t.Fatalf("fields lost: %+v", msgs[0])
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, in := range []string{
		`"just a string"`,
		`42`,
		`{"messages": {"not": "array"}}`,
		`{"other": []}`,
		`[{"author":{"name":"a"}}`,
		``,
	} {
		if _, err := Decode(strings.NewReader(in)); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%q: want ErrInvalidInput, got %v", in, err)
		}
	}
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.json")
	if err := os.WriteFile(path, []byte(`[{"author":{"name":"a"},"content":"hi"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	msgs, err := DecodeFile(path)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("DecodeFile: %v %d", err, len(msgs))
	}
	if _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func msg(author, content string) model.Message {
	return model.Message{Author: model.Author{Name: author}, Content: content}
}

func TestForUser(t *testing.T) {
	msgs := []model.Message{msg("a", "1"), msg("b", "2"), msg("a", "3")}
	got := ForUser(msgs, "a")
	if len(got) != 2 || got[0].Content != "1" || got[1].Content != "3" {
		t.Fatalf("ForUser order/content wrong: %+v", got)
	}
	if len(ForUser(msgs, "zed")) != 0 {
		t.Fatalf("unknown user should yield nothing")
	}
}

func TestQualifyingUsernamesThreshold(t *testing.T) {
	var msgs []model.Message
	for i := 0; i < 4; i++ {
		msgs = append(msgs, msg("four", fmt.Sprintf("m%d", i)))
	}
	for i := 0; i < 5; i++ {
		msgs = append(msgs, msg("five", fmt.Sprintf("m%d", i)))
	}
	// whitespace-only and anonymous messages never count
	msgs = append(msgs, msg("four", "   "), msg("", "hello"), msg("", "a"), msg("", "b"), msg("", "c"), msg("", "d"))
	got := QualifyingUsernames(msgs, DefaultMinMessages)
	if len(got) != 1 || got[0] != "five" {
		t.Fatalf("got %v", got)
	}
}

func TestQualifyingUsernamesFirstSeenOrder(t *testing.T) {
	var msgs []model.Message
	msgs = append(msgs, msg("late", ""))
	for i := 0; i < 5; i++ {
		msgs = append(msgs, msg("early", "x"), msg("late", "y"))
	}
	got := QualifyingUsernames(msgs, 5)
	if len(got) != 2 || got[0] != "early" || got[1] != "late" {
		t.Fatalf("order wrong: %v", got)
	}
}
