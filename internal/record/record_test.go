package record

import "testing"

func TestParseLabel(t *testing.T) {
	tests := []struct {
		in      string
		want    Label
		wantErr bool
	}{
		{"0", Ham, false},
		{"1", Spam, false},
		{"2", 0, true},
		{"spam", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLabel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLabel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLabel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRecordText(t *testing.T) {
	r := Record{Subject: Valid("hi")}
	if got := r.Text(Subject); got != "hi" {
		t.Errorf("Text(Subject) = %q", got)
	}
	if got := r.Text(Body); got != "" {
		t.Errorf("null body Text = %q, want empty", got)
	}
}

func TestSetClone(t *testing.T) {
	s := Set{{ID: ID{"enron", "a"}, Label: Spam}, {ID: ID{"ling", "b"}}}
	c := s.Clone()
	c[0].Label = Ham
	if s[0].Label != Spam {
		t.Error("Clone shares its backing array")
	}

	ids := s.IDs()
	if len(ids) != 2 || ids[1].String() != "ling:b" {
		t.Errorf("IDs() = %v", ids)
	}
	if labels := s.Labels(); labels[0] != Spam || labels[1] != Ham {
		t.Errorf("Labels() = %v", labels)
	}
}
