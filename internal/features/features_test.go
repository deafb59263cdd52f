package features

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/zcline91/spam-filter/internal/doccache"
	"github.com/zcline91/spam-filter/internal/record"
)

func TestTokenize(t *testing.T) {
	tok := NewTokenizer(TokenizerOptions{})
	got := tok.Tokenize("Buy CHEAP pills now!!! Visit http://spam.example or mail me@spam.example, only $99 (don't wait)")
	want := []string{"buy", "cheap", "pills", "visit", "mail", "don't", "wait"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeKeepOptions(t *testing.T) {
	tok := NewTokenizer(TokenizerOptions{KeepStopwords: true, KeepNumbers: true})
	got := tok.Tokenize("the 42 answers")
	if strings.Join(got, " ") != "the 42 answers" {
		t.Errorf("Tokenize = %v", got)
	}
}

func TestCountAndDecode(t *testing.T) {
	b := NewBagOfWords(Options{})
	payload, err := Encode(b.Count("spam spam eggs"))
	if err != nil {
		t.Fatal(err)
	}
	bag, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if bag.Tokens != 3 || bag.Counts["spam"] != 2 || bag.Counts["eggs"] != 1 {
		t.Errorf("bag = %+v", bag)
	}
	if _, err := Decode([]byte("not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestProcessKeepsIdentifiers(t *testing.T) {
	var inputs []doccache.Input
	for i := 0; i < 23; i++ {
		inputs = append(inputs, doccache.Input{
			ID:   record.ID{Corpus: "enron", Path: fmt.Sprintf("raw/GP/%d.txt", i)},
			Text: strings.Repeat("word ", i),
		})
	}
	docs, err := NewBagOfWords(Options{BatchSize: 5, Workers: 3}).Process(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(docs) != len(inputs) {
		t.Fatalf("got %d docs", len(docs))
	}
	for i, d := range docs {
		if d.ID != inputs[i].ID {
			t.Errorf("doc %d id = %v, want %v", i, d.ID, inputs[i].ID)
		}
		bag, err := Decode(d.Payload)
		if err != nil {
			t.Fatal(err)
		}
		if bag.Counts["word"] != i {
			t.Errorf("doc %d counts word %d times", i, bag.Counts["word"])
		}
	}
}

func TestProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBagOfWords(Options{}).Process(ctx, []doccache.Input{{Text: "x"}})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
