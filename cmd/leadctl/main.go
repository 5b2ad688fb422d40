package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/skolarrs/leadintake/internal/leadform"
	"github.com/skolarrs/leadintake/internal/leads"
	"github.com/skolarrs/leadintake/pkg/logging"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "leadctl:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "leadctl",
		Usage: "Submit and rehearse counselling enquiries against the lead intake API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Aliases: []string{"u"},
				Value:   "http://localhost:8080",
				Usage:   "Lead intake API base URL",
				EnvVars: []string{"LEAD_API_BASE_URL"},
			},
			&cli.StringFlag{
				Name:    "variant",
				Value:   string(leads.VariantStrict),
				Usage:   "Required field set (strict, minimal)",
				EnvVars: []string{"LEAD_FORM_VARIANT"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			submitCommand(),
			promptCommand(),
		},
	}
}

func submitCommand() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "Send one enquiry through the inline form flow",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name"},
			&cli.StringFlag{Name: "email"},
			&cli.StringFlag{Name: "phone"},
			&cli.StringFlag{Name: "city"},
			&cli.StringFlag{Name: "course", Usage: "Desired course"},
			&cli.StringFlag{Name: "country", Usage: "Preferred country"},
			&cli.StringFlag{Name: "intake"},
			&cli.StringFlag{Name: "source", Value: "Hero Form", Usage: "Trigger source label"},
		},
		Action: func(c *cli.Context) error {
			logger := newLogger(c)
			ctrl := leadform.New(leadform.Options{
				Kind:      leadform.KindInline,
				Variant:   leads.ParseVariant(c.String("variant")),
				Submitter: newClient(c, logger),
				Source:    c.String("source"),
				Logger:    logger,
			})
			defer ctrl.Detach()

			values := map[leads.Field]string{
				leads.FieldName:             c.String("name"),
				leads.FieldEmail:            c.String("email"),
				leads.FieldPhone:            c.String("phone"),
				leads.FieldCity:             c.String("city"),
				leads.FieldDesiredCourse:    c.String("course"),
				leads.FieldPreferredCountry: c.String("country"),
				leads.FieldIntake:           c.String("intake"),
			}
			for _, f := range leads.Fields {
				ctrl.SetField(f, values[f])
			}
			return submitAndReport(c.Context, ctrl, c.App.Writer)
		},
	}
}

func promptCommand() *cli.Command {
	return &cli.Command{
		Name:  "prompt",
		Usage: "Run an interactive modal session with the auto-prompt armed",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "auto-prompt-delay",
				Value:   15 * time.Second,
				EnvVars: []string{"AUTO_PROMPT_DELAY"},
			},
			&cli.DurationFlag{
				Name:    "close-delay",
				Value:   leadform.DefaultCloseDelay,
				EnvVars: []string{"SUCCESS_CLOSE_DELAY"},
			},
			&cli.StringFlag{Name: "trigger", Value: "Book a free counselling call", Usage: "Label of the trigger opened by Enter"},
			&cli.StringFlag{Name: "source", Usage: "Source recorded for the trigger; defaults to its label"},
		},
		Action: func(c *cli.Context) error {
			logger := newLogger(c)
			return runPrompt(c.Context, promptOptions{
				in:              os.Stdin,
				out:             c.App.Writer,
				submitter:       newClient(c, logger),
				variant:         leads.ParseVariant(c.String("variant")),
				autoPromptDelay: c.Duration("auto-prompt-delay"),
				closeDelay:      c.Duration("close-delay"),
				trigger:         triggerFromFlags(c.String("trigger"), c.String("source")),
				logger:          logger,
			})
		},
	}
}

func newLogger(c *cli.Context) *logging.Logger {
	return logging.NewWithOptions(logging.Options{
		Level:  c.String("log-level"),
		Format: "text",
		Output: c.App.ErrWriter,
	})
}

func newClient(c *cli.Context, logger *logging.Logger) *leadform.Client {
	return leadform.NewClient(leadform.ClientConfig{BaseURL: c.String("api-url")}, logger)
}
