package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/skolarrs/leadintake/internal/leadform"
	"github.com/skolarrs/leadintake/internal/leads"
	"github.com/skolarrs/leadintake/internal/visibility"
	"github.com/skolarrs/leadintake/pkg/logging"
)

type promptOptions struct {
	in              io.Reader
	out             io.Writer
	submitter       leadform.Submitter
	variant         leads.Variant
	autoPromptDelay time.Duration
	closeDelay      time.Duration
	trigger         visibility.Trigger
	logger          *logging.Logger
}

var fieldOptions = map[leads.Field][]string{
	leads.FieldDesiredCourse:    leads.DesiredCourseOptions,
	leads.FieldPreferredCountry: leads.PreferredCountryOptions,
	leads.FieldIntake:           leads.IntakeOptions,
}

func triggerFromFlags(label, source string) visibility.Trigger {
	return visibility.Trigger{Label: label, Source: source}
}

// terminalLocker stands in for the page scroll lock.
type terminalLocker struct {
	logger *logging.Logger
}

func (l terminalLocker) Lock()   { l.logger.Debug("scroll locked") }
func (l terminalLocker) Unlock() { l.logger.Debug("scroll released") }

// runPrompt waits for Enter or the auto-prompt, collects each field from in,
// submits once and waits for the modal to close.
func runPrompt(ctx context.Context, opts promptOptions) error {
	if opts.logger == nil {
		opts.logger = logging.Default()
	}

	coord := visibility.New(visibility.Options{
		AutoPromptDelay: opts.autoPromptDelay,
		ScrollLocker:    terminalLocker{logger: opts.logger},
		Logger:          opts.logger,
	})
	defer coord.Shutdown()

	ctrl := leadform.New(leadform.Options{
		Kind:       leadform.KindModal,
		Variant:    opts.variant,
		Submitter:  opts.submitter,
		CloseDelay: opts.closeDelay,
		OnSuccess: func(string) {
			fmt.Fprintln(opts.out, "Thank you!")
		},
		Logger: opts.logger,
	})
	defer ctrl.Detach()
	ctrl.Bind(coord)

	opened := make(chan visibility.State, 1)
	closed := make(chan struct{}, 1)
	unsubscribe := coord.Subscribe(func(s visibility.State) {
		if s.IsOpen {
			select {
			case opened <- s:
			default:
			}
			return
		}
		select {
		case closed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	done := make(chan struct{})
	defer close(done)
	lines := readLines(done, opts.in)
	coord.Start()
	fmt.Fprintf(opts.out, "Press Enter to open %q (auto-prompt in %s)\n", opts.trigger.Label, opts.autoPromptDelay)

	var state visibility.State
	input := lines
waitOpen:
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case state = <-opened:
			break waitOpen
		case _, ok := <-input:
			if !ok {
				input = nil
				continue
			}
			// Subscribers run synchronously, so the open state is already queued.
			opts.trigger.Fire(coord)
			<-opened
			state = coord.State()
			break waitOpen
		}
	}
	fmt.Fprintf(opts.out, "Form opened (source: %s)\n", state.Source)

	for _, f := range leads.Fields {
		fmt.Fprint(opts.out, fieldPrompt(f, opts.variant))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return errors.New("input closed before the form was complete")
			}
			ctrl.SetField(f, line)
		}
	}

	if err := submitAndReport(ctx, ctrl, opts.out); err != nil {
		return err
	}

	select {
	case <-closed:
		fmt.Fprintln(opts.out, "Form closed")
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(opts.closeDelay + time.Second):
	}
	return nil
}

func fieldPrompt(f leads.Field, variant leads.Variant) string {
	var b strings.Builder
	b.WriteString(f.Label())
	if !lo.Contains(variant.Required(), f) {
		b.WriteString(" (optional)")
	}
	if options, ok := fieldOptions[f]; ok {
		fmt.Fprintf(&b, " [%s]", strings.Join(options, ", "))
	}
	b.WriteString(": ")
	return b.String()
}

// readLines streams lines from in until it is exhausted or done is closed.
func readLines(done <-chan struct{}, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimRight(scanner.Text(), "\r"):
			case <-done:
				return
			}
		}
	}()
	return lines
}

// submitAndReport submits once and prints the status line and any field errors.
func submitAndReport(ctx context.Context, ctrl *leadform.Controller, out io.Writer) error {
	outcome, err := ctrl.Submit(ctx)
	if errors.Is(err, leadform.ErrIncomplete) {
		fmt.Fprintln(out, "Fill in every required field before submitting.")
		return err
	}
	if outcome.Message != "" {
		fmt.Fprintln(out, outcome.Message)
	}
	for _, f := range leads.Fields {
		if msg, ok := outcome.Errors[f]; ok {
			fmt.Fprintf(out, "  %s: %s\n", f.Label(), msg)
		}
	}
	if err != nil {
		return err
	}
	if outcome.Status == leadform.StatusError {
		return errors.New("enquiry not sent")
	}
	return nil
}
