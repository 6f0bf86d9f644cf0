package rules

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JayLeung362573/373-sub000/internal/services/game/session"
)

const rulesetsDir = "../../../rulesets"

func TestParseConfig(t *testing.T) {
	fs := flag.NewFlagSet("rules", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-players", "a=Ana,b", "-seed", "9", "game.yaml"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.File != "game.yaml" || cfg.Players != "a=Ana,b" || cfg.Seed != 9 || cfg.Locale != "en-US" {
		t.Fatalf("config = %+v", cfg)
	}

	fs = flag.NewFlagSet("rules", flag.ContinueOnError)
	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected error without a rules file")
	}
}

func TestParsePlayers(t *testing.T) {
	players, err := ParsePlayers(" a=Ana , b ,")
	if err != nil {
		t.Fatalf("parse players: %v", err)
	}
	if len(players) != 2 || players[0].ID != "a" || players[0].Name != "Ana" || players[1].ID != "b" || players[1].Name != "" {
		t.Fatalf("players = %+v", players)
	}
	for _, raw := range []string{"", " , ", "=Ana"} {
		if _, err := ParsePlayers(raw); err == nil {
			t.Fatalf("ParsePlayers(%q) expected error", raw)
		}
	}
}

func TestRunScripted(t *testing.T) {
	var out bytes.Buffer
	cfg := Config{File: filepath.Join(rulesetsDir, "guess.yaml"), Players: "a,b", Seed: 1, Locale: "en-US"}
	err := Run(context.Background(), cfg, IO{In: strings.NewReader("2\n1\n"), Out: &out})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "> coins on the table:\n> 3\n> round over\nGame over.\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}

func TestRunScriptedRejectsBadAnswer(t *testing.T) {
	var out bytes.Buffer
	cfg := Config{File: filepath.Join(rulesetsDir, "guess.yaml"), Players: "a", Seed: 1, Locale: "en-US"}
	err := Run(context.Background(), cfg, IO{In: strings.NewReader("7\n"), Out: &out})
	if err == nil || !strings.Contains(err.Error(), "The answer 7 is not valid") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunScriptedInputEnds(t *testing.T) {
	var out bytes.Buffer
	cfg := Config{File: filepath.Join(rulesetsDir, "guess.yaml"), Players: "a,b", Seed: 1}
	err := Run(context.Background(), cfg, IO{In: strings.NewReader("1\n"), Out: &out})
	if err == nil || !strings.Contains(err.Error(), "input ended") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunInteractiveRepromptsInPortuguese(t *testing.T) {
	var out bytes.Buffer
	cfg := Config{File: filepath.Join(rulesetsDir, "introductions.yaml"), Players: "a=Ana", Seed: 1, Locale: "pt-BR"}
	in := strings.NewReader("a bard\nbanjo\nlute\n")
	if err := Run(context.Background(), cfg, IO{In: in, Out: &out, Interactive: true}); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Ana, introduce your character: ",
		"Ana, choose a path [sword/staff/lute]: ",
		"Essa resposta não foi aceita: A resposta banjo não é válida para choose a path.",
		"> a bard\n> lute\n",
		"Fim de jogo.",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunLuaRuleset(t *testing.T) {
	var out bytes.Buffer
	cfg := Config{File: filepath.Join(rulesetsDir, "council.lua"), Players: "a=Ana,b=Bo", Seed: 1}
	if err := Run(context.Background(), cfg, IO{In: strings.NewReader("aye\nnay\n"), Out: &out}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := "> Ana\n> 1\nGame over.\n"; out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}

func TestShippedRulesetsParse(t *testing.T) {
	rulesets := session.NewRulesets(os.DirFS(rulesetsDir))
	names, err := rulesets.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no rulesets shipped")
	}
	for _, name := range names {
		if _, err := rulesets.Get(name); err != nil {
			t.Fatalf("ruleset %s: %v", name, err)
		}
	}
}
