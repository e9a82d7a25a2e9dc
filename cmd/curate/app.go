package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vnkhanh/e-flashcard-backend/client"
	"github.com/vnkhanh/e-flashcard-backend/curation"
	"github.com/vnkhanh/e-flashcard-backend/models"
)

// API is the part of the flashcards API the curator uses.
type API interface {
	Generate(ctx context.Context, sourceText string) (*models.GeneratedFlashcards, error)
	SaveFlashcards(ctx context.Context, items []models.CreateFlashcardInput) (*models.CreateFlashcardsResult, error)
}

type app struct {
	api      API
	in       *bufio.Scanner
	out      io.Writer
	session  *curation.Session
	generate *curation.Request
	save     *curation.Request
}

func newApp(api API, in io.Reader, out io.Writer) *app {
	return &app{
		api:      api,
		in:       bufio.NewScanner(in),
		out:      out,
		session:  curation.NewSession(nil),
		generate: curation.NewRequest("generate"),
		save:     curation.NewRequest("save"),
	}
}

const helpText = `commands:
  list          show suggestions
  a N           approve suggestion N
  r N           reject suggestion N
  e N           edit suggestion N
  u N           undo the edit of suggestion N
  save          save approved and edited suggestions
  regen         generate a new set from the same text
  quit          exit without saving`

func (a *app) run(ctx context.Context, sourceText string) error {
	if err := models.CheckSourceText(sourceText); err != nil {
		return err
	}
	if err := a.runGenerate(ctx, sourceText); err != nil {
		return err
	}
	fmt.Fprintln(a.out, helpText)
	a.list()

	for {
		fmt.Fprint(a.out, "> ")
		line, ok := a.readLine()
		if !ok {
			return nil
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		switch cmd {
		case "":
		case "list", "l":
			a.list()
		case "a", "r", "e", "u":
			if err := a.act(cmd, arg); err != nil {
				fmt.Fprintln(a.out, "error:", err)
			}
		case "save", "s":
			done, err := a.runSave(ctx)
			if err != nil {
				fmt.Fprintln(a.out, "error:", err)
			}
			if done {
				return nil
			}
		case "regen":
			if err := a.runGenerate(ctx, sourceText); err != nil {
				fmt.Fprintln(a.out, "error:", err)
				continue
			}
			a.list()
		case "quit", "q":
			return nil
		default:
			fmt.Fprintln(a.out, helpText)
		}
	}
}

func (a *app) runGenerate(ctx context.Context, sourceText string) error {
	fmt.Fprintln(a.out, "generating flashcards...")
	return a.generate.Do(func() error {
		gen, err := a.api.Generate(ctx, sourceText)
		if err != nil {
			return err
		}
		a.session.Reset(gen)
		fmt.Fprintf(a.out, "%d suggestions from %s\n", gen.GeneratedCount, gen.Model)
		return nil
	})
}

// runSave reports done when at least one card was persisted.
func (a *app) runSave(ctx context.Context) (bool, error) {
	if !a.session.CanSave() {
		return false, errors.New("approve or edit at least one flashcard to save")
	}
	var res *models.CreateFlashcardsResult
	err := a.save.Do(func() error {
		var err error
		res, err = a.api.SaveFlashcards(ctx, a.session.Eligible())
		return err
	})
	if res != nil {
		for _, f := range res.Failed {
			fmt.Fprintf(a.out, "not saved: item %d: %s\n", f.Index+1, f.Error)
		}
	}
	var apiErr *client.APIError
	if err != nil && !(errors.As(err, &apiErr) && res != nil) {
		return false, err
	}
	if res == nil || len(res.Data) == 0 {
		return false, errors.New("no flashcards were saved")
	}
	fmt.Fprintf(a.out, "saved %d flashcards\n", len(res.Data))
	return true, nil
}

func (a *app) act(cmd, arg string) error {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return fmt.Errorf("expected a suggestion number")
	}
	i := n - 1
	switch cmd {
	case "a":
		err = a.session.Approve(i)
	case "r":
		err = a.session.Reject(i)
	case "u":
		err = a.session.UndoEdit(i)
	case "e":
		err = a.edit(i)
	}
	if err == nil {
		a.show(i)
	}
	return err
}

func (a *app) edit(i int) error {
	draft, err := a.session.StartEdit(i)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "front [%s]: ", draft.Front)
	front, ok := a.readLine()
	if !ok {
		return a.session.CancelEdit()
	}
	fmt.Fprintf(a.out, "back [%s]: ", draft.Back)
	back, ok := a.readLine()
	if !ok {
		return a.session.CancelEdit()
	}
	if strings.TrimSpace(front) == "" {
		front = draft.Front
	}
	if strings.TrimSpace(back) == "" {
		back = draft.Back
	}
	if err := a.session.UpdateBuffer(front, back); err != nil {
		return err
	}
	if err := a.session.SaveEdit(); err != nil {
		_ = a.session.CancelEdit()
		return err
	}
	return nil
}

func (a *app) list() {
	for i := 0; i < a.session.Len(); i++ {
		a.show(i)
	}
	c := a.session.Counts()
	fmt.Fprintf(a.out, "pending %d, approved %d, edited %d, rejected %d\n",
		c[curation.StatusPending], c[curation.StatusApproved], c[curation.StatusEdited], c[curation.StatusRejected])
}

func (a *app) show(i int) {
	s, err := a.session.Suggestion(i)
	if err != nil {
		return
	}
	st, _ := a.session.Status(i)
	fmt.Fprintf(a.out, "%2d. [%s] %s\n    %s\n", i+1, st, s.Front, s.Back)
}

func (a *app) readLine() (string, bool) {
	if !a.in.Scan() {
		return "", false
	}
	return a.in.Text(), true
}
