package session

import (
	"reflect"
	"testing"
	"testing/fstest"

	apperrors "github.com/JayLeung362573/373-sub000/internal/platform/errors"
)

func TestRulesetsList(t *testing.T) {
	r := NewRulesets(fstest.MapFS{
		"guess.yaml":       {Data: []byte(guessRules)},
		"guess.lua":        {Data: []byte("return Rules.new()")},
		"deal.yml":         {Data: []byte(dealRules)},
		"notes.txt":        {Data: []byte("ignored")},
		"nested/x.yaml":    {Data: []byte(guessRules)},
		"nested/deep.yaml": {Data: []byte(guessRules)},
	})
	names, err := r.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if want := []string{"deal", "guess"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
}

func TestRulesetsGetCaches(t *testing.T) {
	fsys := fstest.MapFS{"guess.yaml": {Data: []byte(guessRules)}}
	r := NewRulesets(fsys)
	first, err := r.Get("guess")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	delete(fsys, "guess.yaml")
	second, err := r.Get("guess")
	if err != nil {
		t.Fatalf("get cached: %v", err)
	}
	if first != second {
		t.Fatal("expected cached ruleset")
	}
}

func TestRulesetsGetErrors(t *testing.T) {
	r := NewRulesets(fstest.MapFS{
		"bad.yaml":       {Data: []byte("program:\n  - jump: 1\n")},
		"nested/ok.yaml": {Data: []byte(guessRules)},
	})
	tests := []struct {
		name string
		want apperrors.Code
	}{
		{name: "bad", want: apperrors.CodeRulesetInvalid},
		{name: "missing", want: apperrors.CodeRulesetNotFound},
		{name: "nested/ok", want: apperrors.CodeRulesetNotFound},
		{name: "../escape", want: apperrors.CodeRulesetNotFound},
		{name: "", want: apperrors.CodeRulesetNotFound},
	}
	for _, tt := range tests {
		_, err := r.Get(tt.name)
		if got := apperrors.CodeOf(err); got != tt.want {
			t.Fatalf("Get(%q) code = %s, want %s", tt.name, got, tt.want)
		}
	}
}
