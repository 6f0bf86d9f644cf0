// Package rules runs a rules file locally, reading answers from a terminal or
// a script and printing announcements.
package rules

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/message"

	entrypoint "github.com/JayLeung362573/373-sub000/internal/platform/cmd"
	apperrors "github.com/JayLeung362573/373-sub000/internal/platform/errors"
	"github.com/JayLeung362573/373-sub000/internal/platform/errors/i18n"
	"github.com/JayLeung362573/373-sub000/internal/platform/i18n/catalog"
	"github.com/JayLeung362573/373-sub000/internal/random"
	"github.com/JayLeung362573/373-sub000/internal/rules/input"
	"github.com/JayLeung362573/373-sub000/internal/rules/interpreter"
	"github.com/JayLeung362573/373-sub000/internal/rules/source"
	"github.com/JayLeung362573/373-sub000/internal/services/game/session"
	"github.com/JayLeung362573/373-sub000/internal/services/game/storage"
)

// Config holds rules command configuration.
type Config struct {
	File    string
	Players string `env:"RULES_PLAYERS" envDefault:"p1"`
	Seed    int64  `env:"RULES_SEED"`
	Locale  string `env:"RULES_LOCALE"  envDefault:"en-US"`
}

// ParseConfig parses environment and flags into a Config. The rules file is
// the first positional argument.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Players, "players", cfg.Players, "Comma separated players, each id or id=Name")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed (0 picks one)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Language for prompts and errors")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.File = strings.TrimSpace(fs.Arg(0))
	if cfg.File == "" {
		return Config{}, errors.New("a rules file is required")
	}
	return cfg, nil
}

// IO binds the driver to its streams. Interactive drivers print prompts and
// ask again after a rejected answer; scripted drivers stop on the first bad
// answer.
type IO struct {
	In          io.Reader
	Out         io.Writer
	Interactive bool
}

// ParsePlayers decodes "id" and "id=Name" entries separated by commas.
func ParsePlayers(raw string) ([]storage.Player, error) {
	var players []storage.Player
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, name, _ := strings.Cut(entry, "=")
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("player entry %q has no id", entry)
		}
		players = append(players, storage.Player{ID: id, Name: strings.TrimSpace(name)})
	}
	if len(players) == 0 {
		return nil, errors.New("at least one player is required")
	}
	return players, nil
}

// Run loads cfg.File and plays it to the end over streams.
func Run(ctx context.Context, cfg Config, streams IO) error {
	rs, err := source.LoadFile(cfg.File)
	if err != nil {
		return err
	}
	players, err := ParsePlayers(cfg.Players)
	if err != nil {
		return err
	}
	seed := cfg.Seed
	if seed == 0 {
		if seed, err = random.NewSeed(); err != nil {
			return err
		}
	}
	interp, err := interpreter.New(rs.Program,
		interpreter.WithRand(random.NewSource(seed)),
		interpreter.WithVariables(session.InitialVariables(storage.SessionRecord{
			ID:      "local",
			Ruleset: rs.Name,
			Players: players,
		})),
	)
	if err != nil {
		return err
	}

	d := &driver{
		interp:      interp,
		printer:     catalog.Default().Printer(cfg.Locale),
		locale:      cfg.Locale,
		names:       make(map[string]string, len(players)),
		scanner:     bufio.NewScanner(streams.In),
		out:         streams.Out,
		interactive: streams.Interactive,
	}
	for _, p := range players {
		d.names[p.ID] = p.Name
		if p.Name == "" {
			d.names[p.ID] = p.ID
		}
	}
	return d.run(ctx)
}

type driver struct {
	interp      *interpreter.Interpreter
	printer     *message.Printer
	locale      string
	names       map[string]string
	scanner     *bufio.Scanner
	out         io.Writer
	interactive bool
}

func (d *driver) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		status, err := d.interp.Execute()
		for _, text := range d.interp.PopOutputs() {
			fmt.Fprintln(d.out, d.printer.Sprintf("rules.announce", text))
		}
		if err != nil {
			return fmt.Errorf("%s: %w", d.localize(err), err)
		}
		if status == interpreter.StatusDone {
			fmt.Fprintln(d.out, d.printer.Sprintf("rules.done"))
			return nil
		}

		requests := d.interp.ConsumeOutGameMessages()
		responses := make([]input.Response, 0, len(requests))
		for _, req := range requests {
			resp, err := d.ask(req)
			if err != nil {
				return err
			}
			responses = append(responses, resp)
		}
		d.interp.SetInGameMessages(responses)
	}
}

// ask reads answers for req until one is accepted.
func (d *driver) ask(req input.Request) (input.Response, error) {
	for {
		if d.interactive {
			fmt.Fprint(d.out, d.prompt(req))
		}
		if !d.scanner.Scan() {
			if err := d.scanner.Err(); err != nil {
				return nil, fmt.Errorf("read answer: %w", err)
			}
			return nil, fmt.Errorf("input ended before %q was answered", req.Key().Prompt)
		}
		key := req.Key()
		resp, err := input.NewResponse(req.Kind(), key.PlayerID, key.Prompt, strings.TrimSpace(d.scanner.Text()))
		if err == nil {
			err = input.Validate(req, resp)
		}
		if err == nil {
			return resp, nil
		}
		if !d.interactive {
			return nil, fmt.Errorf("%s: %w", d.localize(err), err)
		}
		fmt.Fprintln(d.out, d.printer.Sprintf("rules.invalid_answer", d.localize(err)))
	}
}

func (d *driver) prompt(req input.Request) string {
	key := req.Key()
	name := d.names[key.PlayerID]
	if name == "" {
		name = key.PlayerID
	}
	switch r := req.(type) {
	case input.GetChoiceInput:
		return d.printer.Sprintf("rules.prompt.choice", name, key.Prompt, strings.Join(r.Choices, "/"))
	case input.GetVoteInput:
		return d.printer.Sprintf("rules.prompt.vote", name, key.Prompt, strings.Join(r.Choices, "/"))
	case input.GetRangeInput:
		return d.printer.Sprintf("rules.prompt.range", name, key.Prompt, r.Min, r.Max)
	default:
		return d.printer.Sprintf("rules.prompt.text", name, key.Prompt)
	}
}

// localize renders err the way a player would read it.
func (d *driver) localize(err error) string {
	appErr, ok := apperrors.As(err)
	if !ok {
		return err.Error()
	}
	return i18n.GetCatalog(d.locale).Format(string(appErr.Code), appErr.Metadata)
}
