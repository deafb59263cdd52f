package email

import (
	"strings"
	"testing"
)

func extract(t *testing.T, raw string) (Message, error) {
	t.Helper()
	return NewExtractor(nil).ExtractBytes([]byte(raw))
}

func TestExtractPlainText(t *testing.T) {
	msg, err := extract(t, "Subject: Hello\nContent-Type: text/plain; charset=utf-8\n\nHi there\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Subject != "Hello" {
		t.Errorf("Subject = %q, want %q", msg.Subject, "Hello")
	}
	if strings.TrimSpace(msg.Body) != "Hi there" {
		t.Errorf("Body = %q, want %q", msg.Body, "Hi there")
	}
}

func TestExtractNoContentTypeDefaultsToPlain(t *testing.T) {
	msg, err := extract(t, "Subject: bare\n\nno headers here\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(msg.Body) != "no headers here" {
		t.Errorf("Body = %q", msg.Body)
	}
}

func TestExtractEmptyBodyIsValid(t *testing.T) {
	msg, err := extract(t, "Content-Type: text/plain\n\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Subject != "" || msg.Body != "" {
		t.Errorf("got %+v, want empty subject and body", msg)
	}
}

func TestExtractMultipartConcatenatesInOrder(t *testing.T) {
	raw := strings.Join([]string{
		"Subject: alt",
		`Content-Type: multipart/alternative; boundary="XYZ"`,
		"",
		"--XYZ",
		"Content-Type: text/plain; charset=us-ascii",
		"",
		"plain part",
		"--XYZ",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<html><body><p>html <b>part</b></p></body></html>",
		"--XYZ--",
		"",
	}, "\n")

	msg, err := extract(t, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	plain := strings.Index(msg.Body, "plain part")
	html := strings.Index(msg.Body, "html part")
	if plain < 0 || html < 0 {
		t.Fatalf("Body = %q, want both parts", msg.Body)
	}
	if plain > html {
		t.Errorf("parts out of traversal order: %q", msg.Body)
	}
	if strings.Contains(msg.Body, "<b>") {
		t.Errorf("html tags not stripped: %q", msg.Body)
	}
}

func TestExtractSkipsNonTextParts(t *testing.T) {
	raw := strings.Join([]string{
		`Content-Type: multipart/mixed; boundary="B"`,
		"",
		"--B",
		"Content-Type: text/plain",
		"",
		"see attached",
		"--B",
		"Content-Type: application/octet-stream",
		"Content-Transfer-Encoding: base64",
		"",
		"AAECAwQ=",
		"--B--",
		"",
	}, "\n")

	msg, err := extract(t, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(msg.Body) != "see attached" {
		t.Errorf("Body = %q, want only the text part", msg.Body)
	}
}

func TestExtractUnsupportedContentType(t *testing.T) {
	_, err := extract(t, "Content-Type: image/png\nContent-Transfer-Encoding: base64\n\niVBORw0KGgo=\n")
	if !IsContentTypeError(err) {
		t.Fatalf("err = %v, want ContentTypeError", err)
	}
	if !strings.Contains(err.Error(), "image/png") {
		t.Errorf("error %q should name the content type", err)
	}
}

func TestExtractRejectsCharset(t *testing.T) {
	_, err := extract(t, "Content-Type: text/plain; charset=\"KOI8-R\"\n\nprivet\n")
	cs, ok := RejectedCharset(err)
	if !ok {
		t.Fatalf("err = %v, want CharsetError", err)
	}
	if cs != "koi8-r" {
		t.Errorf("charset = %q, want %q", cs, "koi8-r")
	}
	if !IsEncodingError(err) {
		t.Error("charset rejection should count as an encoding error")
	}
}

func TestExtractRejectedCharsetInsideMultipart(t *testing.T) {
	raw := strings.Join([]string{
		`Content-Type: multipart/mixed; boundary="B"`,
		"",
		"--B",
		"Content-Type: text/plain; charset=big5",
		"",
		"text",
		"--B--",
		"",
	}, "\n")
	_, err := extract(t, raw)
	if cs, ok := RejectedCharset(err); !ok || cs != "big5" {
		t.Fatalf("err = %v, want CharsetError for big5", err)
	}
}

func TestExtractCustomCharsets(t *testing.T) {
	x := NewExtractor(DefaultCharsets.With("ISO-8859-7"))
	msg, err := x.ExtractBytes([]byte("Content-Type: text/plain; charset=iso-8859-7\n\nabc\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(msg.Body) != "abc" {
		t.Errorf("Body = %q", msg.Body)
	}
	if DefaultCharsets.Accepts("iso-8859-7") {
		t.Error("With must not modify the receiver")
	}
}

func TestExtractDecodesLatin1QuotedPrintable(t *testing.T) {
	raw := "Content-Type: text/plain; charset=iso-8859-1\nContent-Transfer-Encoding: quoted-printable\n\ncaf=E9\n"
	msg, err := extract(t, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(msg.Body) != "café" {
		t.Errorf("Body = %q, want %q", msg.Body, "café")
	}
}

func TestExtractASCIIAlias(t *testing.T) {
	msg, err := extract(t, "Content-Type: text/plain; charset=iso-646-us\n\nplain ascii\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(msg.Body) != "plain ascii" {
		t.Errorf("Body = %q", msg.Body)
	}
}

func TestExtractEncodedSubject(t *testing.T) {
	msg, err := extract(t, "Subject: =?utf-8?q?Caf=C3=A9?=\n\nbody\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Subject != "Café" {
		t.Errorf("Subject = %q, want %q", msg.Subject, "Café")
	}
}

func TestExtractUndecodableSubject(t *testing.T) {
	_, err := extract(t, "Subject: =?x-no-such-charset?q?abc?=\n\nbody\n")
	if !IsEncodingError(err) {
		t.Fatalf("err = %v, want encoding error", err)
	}
	if _, ok := RejectedCharset(err); ok {
		t.Error("subject failures should be decode errors, not charset rejections")
	}
}

func TestExtractAttachedMessage(t *testing.T) {
	raw := strings.Join([]string{
		"Subject: fwd",
		`Content-Type: multipart/mixed; boundary="OUT"`,
		"",
		"--OUT",
		"Content-Type: text/plain",
		"",
		"outer",
		"--OUT",
		"Content-Type: message/rfc822",
		"",
		"Subject: inner",
		"Content-Type: text/plain",
		"",
		"inner text",
		"--OUT--",
		"",
	}, "\n")
	msg, err := extract(t, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(msg.Body, "outer") || !strings.Contains(msg.Body, "inner text") {
		t.Errorf("Body = %q, want outer and attached text", msg.Body)
	}
}

func TestHTMLText(t *testing.T) {
	got := htmlText("<p>Hello <a href=\"x\">World</a></p><!-- hidden -->")
	if got != "Hello World" {
		t.Errorf("htmlText = %q, want %q", got, "Hello World")
	}
}

func TestExtractMboxFromLine(t *testing.T) {
	raw := "From RickyAmes@aol.com  Sun Apr  8 13:07:32 2007\n" +
		"Return-Path: <RickyAmes@aol.com>\n" +
		"Subject: Re: Make it hard\n" +
		"Content-Type: text/plain; charset=us-ascii\n" +
		"\n" +
		"hello there\n"
	msg, err := extract(t, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Subject != "Re: Make it hard" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if strings.TrimSpace(msg.Body) != "hello there" {
		t.Errorf("Body = %q", msg.Body)
	}
}

func TestExtractMalformedHeaderLineStartsBody(t *testing.T) {
	raw := "Subject: broken\r\n" +
		"this line is not a header\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"tail\r\n"
	msg, err := extract(t, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Subject != "broken" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.HasPrefix(msg.Body, "this line is not a header\r\n") || !strings.Contains(msg.Body, "tail") {
		t.Errorf("Body = %q", msg.Body)
	}
}

func TestLenientHeader(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"well formed", "A: 1\n B\n\nbody", "A: 1\n B\n\nbody"},
		{"mbox separator", "From x@y  Sun\nA: 1\n\nbody", "A: 1\n\nbody"},
		{"space before colon", "A: 1\nB : 2\n\nbody", "A: 1\n\r\nB : 2\n\nbody"},
		{"leading continuation", " folded\n\nbody", "\r\n folded\n\nbody"},
		{"no separator", "A: 1\nB: 2\n", "A: 1\nB: 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(lenientHeader([]byte(tt.in))); got != tt.want {
				t.Errorf("lenientHeader(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
