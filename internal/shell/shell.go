// Package shell is the interactive front end: one command per line, driving
// the planner the same way pointer and keyboard input would.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/instaplanner/internal/export"
	"github.com/debemdeboas/instaplanner/internal/gallery"
	"github.com/debemdeboas/instaplanner/internal/gesture"
	"github.com/debemdeboas/instaplanner/internal/keyboard"
	"github.com/debemdeboas/instaplanner/internal/model"
	"github.com/debemdeboas/instaplanner/internal/planner"
	"github.com/debemdeboas/instaplanner/internal/upload"
	"github.com/debemdeboas/instaplanner/internal/util"
)

const shortIDLen = 8

var errQuit = errors.New("quit")

type Deps struct {
	Planner  *planner.Planner
	Gestures *gesture.Resolver
	Keys     *keyboard.Router
	Loader   *upload.Loader
	Sheet    *export.ProfileSheet
	Printer  *Printer
	Logger   zerolog.Logger
}

type Shell struct {
	Deps
	commands map[string]command
}

type command struct {
	usage string
	run   func(s *Shell, args []string) error
}

func New(deps Deps) *Shell {
	if deps.Printer == nil {
		deps.Printer = NewPrinter(os.Stdout)
	}
	s := &Shell{Deps: deps}
	s.commands = map[string]command{
		"help":    {"help", (*Shell).help},
		"ls":      {"ls", (*Shell).list},
		"add":     {"add [grid|sidebar] <file|dir>...", (*Shell).add},
		"rm":      {"rm <ref>", (*Shell).remove},
		"mv":      {"mv <ref>", (*Shell).move},
		"mvall":   {"mvall <grid|sidebar>", (*Shell).moveAll},
		"reorder": {"reorder <grid|sidebar> <from> <to> [slide]", (*Shell).reorder},
		"swap":    {"swap <ref> <ref>", (*Shell).swap},
		"drag":    {"drag <ref> <ref|grid|sidebar|-> [slide]", (*Shell).drag},
		"hover":   {"hover [ref]", (*Shell).hover},
		"key":     {"key <ArrowLeft|ArrowRight|Delete|Backspace|z> [mod] [shift]", (*Shell).key},
		"shuffle": {"shuffle <grid|sidebar>", (*Shell).shuffle},
		"clear":   {"clear <grid|sidebar|all>", (*Shell).clear},
		"undo":    {"undo", (*Shell).undo},
		"redo":    {"redo", (*Shell).redo},
		"export":  {"export <file.pdf>", (*Shell).export},
	}
	return s
}

// Run reads commands from in until EOF, "quit" or ctx is done.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	s.Printer.Println("Enter commands one by one. Type 'help' for a list, 'quit' to exit.")

	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		s.Printer.Prompt("instaplanner> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		err := s.Exec(line)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			s.Printer.Printf("Error: %v", err)
		}
	}
	return scanner.Err()
}

// Exec runs a single command line.
func (s *Shell) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	name, args := strings.ToLower(fields[0]), fields[1:]
	if name == "quit" || name == "exit" {
		return errQuit
	}

	cmd, ok := s.commands[name]
	if !ok {
		return errors.Errorf("unknown command %q", name)
	}
	s.Logger.Debug().Str("command", name).Strs("args", args).Msg("Shell command")
	return cmd.run(s, args)
}

func (s *Shell) help(_ []string) error {
	names := []string{"ls", "add", "rm", "mv", "mvall", "reorder", "swap", "drag", "hover", "key", "shuffle", "clear", "undo", "redo", "export", "help"}
	for _, name := range names {
		s.Printer.Printf("  %s", s.commands[name].usage)
	}
	s.Printer.Printf("  quit")
	s.Printer.Println(dimStyle.Render("A ref is g<index>, s<index> or a unique id prefix."))
	return nil
}

func (s *Shell) list(_ []string) error {
	for _, c := range []model.Container{model.Grid, model.Sidebar} {
		items := s.Planner.Items(c)
		s.Printer.Println(titleStyle.Render(fmt.Sprintf("%s (%d)", c.Title(), len(items))))
		for i, item := range items {
			s.Printer.Printf("  %s%d %s", string(c)[:1], i, util.ShortID(string(item.ID), shortIDLen))
		}
	}

	hovered, _ := s.Keys.Hover()
	if hovered != "" {
		s.Printer.Println(dimStyle.Render("hover: " + util.ShortID(string(hovered), shortIDLen)))
	}
	return nil
}

func (s *Shell) add(args []string) error {
	target := model.Sidebar
	if len(args) > 0 {
		if c, err := parseLiveContainer(args[0]); err == nil {
			target = c
			args = args[1:]
		}
	}
	if len(args) == 0 {
		return errors.New("usage: " + s.commands["add"].usage)
	}
	return s.Import(target, args)
}

// Import loads paths, a single directory or a list of files, and adds the
// images that pass validation to target.
func (s *Shell) Import(target model.Container, args []string) error {
	if len(args) == 0 {
		return errors.New("nothing to import")
	}

	var items []model.Item
	var loadErr error
	if info, err := os.Stat(args[0]); err == nil && info.IsDir() && len(args) == 1 {
		items, loadErr = s.Loader.LoadDir(args[0])
	} else {
		items, loadErr = s.Loader.LoadFiles(args)
	}
	if loadErr != nil {
		s.reportUploadErrors(loadErr)
	}
	if len(items) == 0 {
		return nil
	}

	if _, err := s.Planner.AddItems(items, target); err != nil {
		s.Logger.Debug().Err(err).Msg("Add rejected")
	}
	return nil
}

func (s *Shell) reportUploadErrors(err error) {
	var joined interface{ Unwrap() []error }
	errs := []error{err}
	if errors.As(err, &joined) {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		var ue *upload.Error
		if errors.As(e, &ue) {
			s.Printer.Println(destructiveStyle.Render("Upload failed") + " " + dimStyle.Render(ue.Message))
			continue
		}
		s.Printer.Printf("Error: %v", e)
	}
}

func (s *Shell) remove(args []string) error {
	id, c, err := s.ref(args, 0)
	if err != nil {
		return err
	}
	return s.Planner.DeleteItem(id, c)
}

func (s *Shell) move(args []string) error {
	id, c, err := s.ref(args, 0)
	if err != nil {
		return err
	}
	return s.Planner.MoveItem(id, c, c.Other())
}

func (s *Shell) moveAll(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: " + s.commands["mvall"].usage)
	}
	from, err := parseLiveContainer(args[0])
	if err != nil {
		return err
	}
	return s.Planner.MoveAll(from, from.Other())
}

func (s *Shell) reorder(args []string) error {
	if len(args) < 3 {
		return errors.New("usage: " + s.commands["reorder"].usage)
	}
	c, err := parseLiveContainer(args[0])
	if err != nil {
		return err
	}
	from, err := strconv.Atoi(args[1])
	if err != nil {
		return errors.Wrap(err, "invalid from index")
	}
	to, err := strconv.Atoi(args[2])
	if err != nil {
		return errors.Wrap(err, "invalid to index")
	}

	mode := gallery.ModeSwap
	if hasFlag(args[3:], "slide") {
		mode = gallery.ModeSlide
	}
	return s.Planner.Reorder(c, from, to, mode)
}

func (s *Shell) swap(args []string) error {
	a, _, err := s.ref(args, 0)
	if err != nil {
		return err
	}
	b, _, err := s.ref(args, 1)
	if err != nil {
		return err
	}
	return s.Planner.SwapAcrossContainers(a, b)
}

func (s *Shell) drag(args []string) error {
	active, _, err := s.ref(args, 0)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return errors.New("usage: " + s.commands["drag"].usage)
	}

	over := ""
	switch target := args[1]; target {
	case "-":
	case string(model.Grid), string(model.Sidebar):
		over = target
	default:
		id, _, err := s.ref(args, 1)
		if err != nil {
			return err
		}
		over = string(id)
	}

	s.Gestures.DragStart(active)
	res := s.Gestures.DragEnd(gesture.DragEndEvent{ActiveID: active, OverID: over}, gesture.InputState{Slide: hasFlag(args[2:], "slide")})
	s.Gestures.Wait()

	s.Printer.Println(dimStyle.Render("drop: " + res.Op.String()))
	return nil
}

func (s *Shell) hover(args []string) error {
	if len(args) == 0 {
		s.Keys.ClearHover()
		return nil
	}
	id, c, err := s.ref(args, 0)
	if err != nil {
		return err
	}
	s.Keys.SetHover(id, c)
	return nil
}

func (s *Shell) key(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: " + s.commands["key"].usage)
	}

	mod := hasFlag(args[1:], "mod")
	ev := keyboard.KeyEvent{
		Key:   args[0],
		Meta:  mod,
		Ctrl:  mod,
		Shift: hasFlag(args[1:], "shift"),
	}
	cmd := s.Keys.HandleKey(ev)
	s.Printer.Println(dimStyle.Render("key: " + cmd.String()))
	return nil
}

func (s *Shell) shuffle(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: " + s.commands["shuffle"].usage)
	}
	c, err := parseLiveContainer(args[0])
	if err != nil {
		return err
	}
	return s.Planner.Shuffle(c)
}

func (s *Shell) clear(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: " + s.commands["clear"].usage)
	}
	c, err := model.ParseContainer(args[0])
	if err != nil {
		return err
	}
	if c == model.All {
		return s.Planner.ClearAll()
	}
	return s.Planner.Clear(c)
}

func (s *Shell) undo(_ []string) error {
	if !s.Planner.CanUndo() {
		s.Printer.Println(dimStyle.Render("Nothing to undo."))
		return nil
	}
	s.Planner.Undo()
	return nil
}

func (s *Shell) redo(_ []string) error {
	if !s.Planner.CanRedo() {
		s.Printer.Println(dimStyle.Render("Nothing to redo."))
		return nil
	}
	s.Planner.Redo()
	return nil
}

func (s *Shell) export(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: " + s.commands["export"].usage)
	}
	items := s.Planner.Items(model.Grid)
	if err := s.Sheet.WriteFile(args[0], items); err != nil {
		return err
	}
	s.Printer.Printf("Exported %d images to %s", len(items), args[0])
	return nil
}

// ref resolves args[i] to an item. Accepted forms are g<index>, s<index> and
// a unique id prefix.
func (s *Shell) ref(args []string, i int) (model.ItemID, model.Container, error) {
	if i >= len(args) {
		return "", "", errors.New("missing item reference")
	}
	r := args[i]

	if len(r) > 1 {
		var c model.Container
		switch r[0] {
		case 'g':
			c = model.Grid
		case 's':
			c = model.Sidebar
		}
		if idx, err := strconv.Atoi(r[1:]); c != "" && err == nil {
			items := s.Planner.Items(c)
			if idx < 0 || idx >= len(items) {
				return "", "", errors.Errorf("%s has no index %d", c, idx)
			}
			return items[idx].ID, c, nil
		}
	}

	var found model.ItemID
	var foundIn model.Container
	for _, c := range []model.Container{model.Grid, model.Sidebar} {
		for _, item := range s.Planner.Items(c) {
			if !strings.HasPrefix(string(item.ID), r) {
				continue
			}
			if found != "" {
				return "", "", errors.Errorf("ambiguous reference %q", r)
			}
			found, foundIn = item.ID, c
		}
	}
	if found == "" {
		return "", "", errors.Errorf("no item matches %q", r)
	}
	return found, foundIn, nil
}

func parseLiveContainer(s string) (model.Container, error) {
	c, err := model.ParseContainer(strings.ToLower(s))
	if err != nil {
		return "", err
	}
	if !c.Valid() {
		return "", errors.Errorf("expected grid or sidebar, got %q", s)
	}
	return c, nil
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if strings.EqualFold(a, flag) {
			return true
		}
	}
	return false
}
