package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mmdatafocus/dispatch_forms/connectivity"
	"github.com/mmdatafocus/dispatch_forms/forms"
	"github.com/mmdatafocus/dispatch_forms/models"
	"github.com/mmdatafocus/dispatch_forms/session"
	"github.com/mmdatafocus/dispatch_forms/submission"
)

const helpText = `commands:
  show                 print the active form
  set <field> <value>  change a field or quantity (empty value clears it)
  tab <kind>           switch to another open form
  preview              validate and show what will be sent
  confirm | cancel     second step of the preview, or back to editing
  submit               send the confirmed draft
  ack                  dismiss the submission outcome
  reset                discard the active draft
  prefetch             load the ledger's record for the current date and id
  status               connectivity and submission state
  quit`

// console is the line-oriented UI loop that drives one session.
type console struct {
	sess *session.Session
	in   io.Reader
	out  io.Writer
}

func newConsole(sess *session.Session, in io.Reader, out io.Writer) *console {
	return &console{sess: sess, in: in, out: out}
}

func (c *console) Run(ctx context.Context) error {
	banner := c.sess.Monitor().Subscribe()
	scanner := bufio.NewScanner(c.in)
	c.printf("%s\n", helpText)
	c.show()
	for {
		c.drainBanner(banner)
		c.printf("%s> ", c.sess.Active().Kind())
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if quit := c.exec(ctx, scanner.Text()); quit {
			return nil
		}
	}
}

func (c *console) exec(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	ctrl := c.sess.Controller()
	switch cmd := strings.ToLower(fields[0]); cmd {
	case "quit", "exit":
		return true
	case "help":
		c.printf("%s\n", helpText)
	case "show":
		c.show()
	case "set":
		if len(fields) < 2 {
			c.printf("usage: set <field> <value>\n")
			return false
		}
		rest := strings.TrimSpace(line)
		rest = strings.TrimSpace(rest[len(fields[0]):])
		value := strings.TrimSpace(rest[len(fields[1]):])
		if c.report(c.sess.SetField(ctx, fields[1], value)) {
			c.printf("total %s MT\n", c.sess.Active().Record().Total)
		}
	case "tab":
		if len(fields) != 2 {
			c.printf("usage: tab <%s>\n", joinKinds(c.sess.Kinds()))
			return false
		}
		kind, err := models.ParseFormKind(fields[1])
		if err == nil {
			err = c.sess.SwitchTab(kind)
		}
		if c.report(err) {
			c.show()
		}
	case "preview":
		result, err := ctrl.Preview()
		if errors.Is(err, submission.ErrValidation) {
			for _, name := range result.Fields() {
				c.printf("  ! %s\n", result[name])
			}
			return false
		}
		if c.report(err) {
			c.preview()
		}
	case "confirm":
		if c.report(ctrl.Confirm()) {
			c.printf("confirmed; type submit to send\n")
		}
	case "cancel":
		if c.report(ctrl.Cancel()) {
			c.printf("back to editing\n")
		}
	case "submit":
		attempt, err := ctrl.Submit(ctx)
		if attempt == nil {
			c.report(err)
			return false
		}
		c.printf("%s: %s\n", ctrl.State(), ctrl.Notice())
	case "ack":
		c.report(ctrl.Acknowledge())
	case "reset":
		if c.report(c.sess.Reset(ctx)) {
			c.show()
		}
	case "prefetch":
		if c.report(c.sess.Prefetch(ctx)) {
			c.show()
		}
	case "status":
		c.status()
	default:
		c.printf("unknown command %q; type help\n", cmd)
	}
	return false
}

func (c *console) show() {
	store := c.sess.Active()
	spec := store.Spec()
	rec := store.Record()
	errs := store.Errors()
	c.printf("== %s (%s) ==\n", spec.Title, c.sess.Controller().State())
	for _, f := range spec.Fields {
		c.printLine(f.Name, f.Label, rec.Get(f.Name), f.Required, errs[f.Name])
		if f.Input == models.InputSelector {
			c.printf("      options: %s\n", strings.Join(f.Options, ", "))
		}
	}
	for _, q := range spec.Quantities {
		c.printLine(q.Key, q.Label, rec.Get(q.Key), false, errs[q.Key])
	}
	c.printf("  %-20s %s\n", models.TotalField, rec.Get(models.TotalField))
}

func (c *console) printLine(name, label, value string, required bool, errMsg string) {
	mark := " "
	if required {
		mark = "*"
	}
	c.printf("%s %-20s %-24s %s\n", mark, name, label, value)
	if errMsg != "" {
		c.printf("      ! %s\n", errMsg)
	}
}

func (c *console) preview() {
	payload := c.sess.Active().Record().Payload()
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	c.printf("about to send:\n")
	for _, k := range keys {
		if payload[k] == "" {
			continue
		}
		c.printf("  %-20s %s\n", k, payload[k])
	}
	c.printf("type confirm to continue or cancel to edit\n")
}

func (c *console) status() {
	online := "online"
	if !c.sess.Monitor().Online() {
		online = "offline (drafts are kept on this device)"
	}
	c.printf("connectivity: %s\n", online)
	ctrl := c.sess.Controller()
	c.printf("state: %s\n", ctrl.State())
	if a := ctrl.LastAttempt(); a != nil {
		c.printf("last attempt %s: %s %s\n", a.ID, a.Outcome, a.Class)
	}
	if n := ctrl.Notice(); n != "" {
		c.printf("notice: %s\n", n)
	}
}

func (c *console) drainBanner(ch <-chan connectivity.Transition) {
	for {
		select {
		case t, ok := <-ch:
			if !ok {
				return
			}
			if t.Online {
				c.printf("[back online]\n")
			} else {
				c.printf("[offline: drafts are saved on this device]\n")
			}
		default:
			return
		}
	}
}

// report prints err, if any, and reports whether the command succeeded.
func (c *console) report(err error) bool {
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, forms.ErrUnknownField), errors.Is(err, forms.ErrTotalField):
		c.printf("%v\n", err)
	default:
		c.printf("error: %v\n", err)
	}
	return false
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func joinKinds(kinds []models.FormKind) string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return strings.Join(out, "|")
}
