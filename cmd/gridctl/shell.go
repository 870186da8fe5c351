package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/danbne/velaxios-sub000/grid"
	"github.com/danbne/velaxios-sub000/guard"
	"github.com/danbne/velaxios-sub000/row"
	"github.com/danbne/velaxios-sub000/workset"
)

const help = `commands:
  list                       show all rows
  add <name> [owner]         append a new row
  edit <id> <field> <value>  change name or owner of a row
  delete <id...>             delete rows
  dup <id>                   duplicate a row
  save                       commit pending changes
  discard                    drop pending changes
  refresh                    reload from the database
  status                     show pending change counts
  exit                       leave gridctl`

// shell is the line-oriented front end. Row ids may be abbreviated to any
// unique prefix.
type shell struct {
	set   *workset.Set[asset]
	view  *grid.View[asset]
	guard *guard.Guard
	in    *bufio.Scanner
	out   io.Writer

	fetchTimeout time.Duration
	saveTimeout  time.Duration
}

func newShell(set *workset.Set[asset], view *grid.View[asset], g *guard.Guard, in io.Reader, out io.Writer) *shell {
	return &shell{
		set:          set,
		view:         view,
		guard:        g,
		in:           bufio.NewScanner(in),
		out:          out,
		fetchTimeout: 30 * time.Second,
		saveTimeout:  60 * time.Second,
	}
}

// run reads commands until exit or end of input.
func (sh *shell) run(ctx context.Context) error {
	for {
		fmt.Fprint(sh.out, "grid> ")
		if !sh.in.Scan() {
			fmt.Fprintln(sh.out)
			if sh.guard.BeforeUnload() {
				fmt.Fprintf(sh.out, "exiting with %d unsaved change(s)\n", sh.set.ChangeCounts().Total())
			}
			return sh.in.Err()
		}
		line := strings.TrimSpace(sh.in.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			if sh.confirmLeave(ctx) {
				return nil
			}
			continue
		}
		if err := sh.exec(ctx, line); err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
	}
}

// confirmLeave asks before dropping unsaved changes on exit.
func (sh *shell) confirmLeave(ctx context.Context) bool {
	if !sh.guard.BeforeUnload() {
		return true
	}
	c := sh.set.ChangeCounts()
	fmt.Fprintf(sh.out, "%d unsaved change(s) will be lost.\n", c.Total())
	return sh.ask(true)
}

// confirmRefresh is the guard.Confirmer for refresh. End of input declines.
func (sh *shell) confirmRefresh(context.Context) bool {
	return sh.ask(false)
}

// ask reads a yes/no answer; onEOF is returned when input is exhausted.
func (sh *shell) ask(onEOF bool) bool {
	fmt.Fprint(sh.out, "discard unsaved changes? [y/N] ")
	if !sh.in.Scan() {
		fmt.Fprintln(sh.out)
		return onEOF
	}
	switch strings.ToLower(strings.TrimSpace(sh.in.Text())) {
	case "y", "yes":
		return true
	}
	return false
}

func (sh *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "help", "?":
		fmt.Fprintln(sh.out, help)
	case "list", "ls":
		sh.list()
	case "add":
		if len(args) == 0 {
			return errors.New("usage: add <name> [owner]")
		}
		a := asset{Name: args[0]}
		if len(args) > 1 {
			a.Owner = strings.Join(args[1:], " ")
		}
		r := sh.set.AddNewRow(a)
		fmt.Fprintf(sh.out, "added %s\n", r.ID)
	case "edit":
		if len(args) < 3 {
			return errors.New("usage: edit <id> <field> <value>")
		}
		id, err := sh.resolve(args[0])
		if err != nil {
			return err
		}
		cur, _ := sh.set.Get(id)
		next, err := cur.Data.withField(args[1], strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		return sh.set.EditRow(id, next)
	case "delete", "rm":
		if len(args) == 0 {
			return errors.New("usage: delete <id...>")
		}
		ids := make([]string, 0, len(args))
		for _, a := range args {
			id, err := sh.resolve(a)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		fmt.Fprintf(sh.out, "deleted %d row(s)\n", sh.set.DeleteSelectedRows(ids))
	case "dup":
		if len(args) != 1 {
			return errors.New("usage: dup <id>")
		}
		id, err := sh.resolve(args[0])
		if err != nil {
			return err
		}
		if r, ok := sh.set.DuplicateSelectedRow([]string{id}); ok {
			fmt.Fprintf(sh.out, "added %s\n", r.ID)
		}
	case "save":
		return sh.save(ctx)
	case "discard":
		sh.set.DiscardAllChanges()
		fmt.Fprintln(sh.out, "changes discarded")
	case "refresh":
		fctx, cancel := context.WithTimeout(ctx, sh.fetchTimeout)
		defer cancel()
		ok, err := sh.guard.Refresh(fctx, sh.confirmRefresh)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(sh.out, "refresh cancelled")
			return nil
		}
		fmt.Fprintf(sh.out, "loaded %d row(s)\n", sh.set.Len())
	case "status":
		c := sh.set.ChangeCounts()
		fmt.Fprintf(sh.out, "rows=%d added=%d modified=%d deleted=%d\n", sh.set.Len(), c.Added, c.Modified, c.Deleted)
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
	return nil
}

func (sh *shell) load(ctx context.Context) error {
	fctx, cancel := context.WithTimeout(ctx, sh.fetchTimeout)
	defer cancel()
	return sh.set.Load(fctx)
}

func (sh *shell) save(ctx context.Context) error {
	if !sh.set.HasUnsavedChanges() {
		fmt.Fprintln(sh.out, "nothing to save")
		return nil
	}
	sctx, cancel := context.WithTimeout(ctx, sh.saveTimeout)
	defer cancel()
	err := sh.set.SaveChanges(sctx)
	var verr *workset.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(sh.out, "save rejected: %s\n", verr.Message)
		for _, item := range verr.Items {
			fmt.Fprintf(sh.out, "  %s\n", item)
		}
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "saved")
	return nil
}

func (sh *shell) list() {
	tw := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATE\tID\tNAME\tOWNER")
	for _, r := range sh.view.Rows() {
		state := "-"
		if c := row.ClassOf(r.Meta); c != row.ClassNone {
			state = c.String()
		}
		if r.Meta.Failed && row.ClassOf(r.Meta) != row.ClassFailed {
			state += "!"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", state, r.ID, r.Data.Name, r.Data.Owner)
	}
	_ = tw.Flush()
}

// resolve expands a unique id prefix to the full row id.
func (sh *shell) resolve(prefix string) (string, error) {
	if _, ok := sh.set.Get(prefix); ok {
		return prefix, nil
	}
	var match string
	for _, r := range sh.set.Rows() {
		if !strings.HasPrefix(r.ID, prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("id prefix %q is ambiguous", prefix)
		}
		match = r.ID
	}
	if match == "" {
		return "", fmt.Errorf("no row with id %q", prefix)
	}
	return match, nil
}
