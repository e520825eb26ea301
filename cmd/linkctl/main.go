// linkctl is the operator tool for the link service: it seeds domains and
// artists, allocates and checks codes, and republishes a domain's keys.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/sundayezeilo/shortlinks/internal/app"
	"github.com/sundayezeilo/shortlinks/internal/config"
	"github.com/sundayezeilo/shortlinks/internal/db"
	"github.com/sundayezeilo/shortlinks/internal/seed"
)

const usage = `linkctl manages short-link domains and codes.

Usage:
  linkctl seed  --file PATH
  linkctl code  --domain NAME [--count N]
  linkctl check --domain NAME --code CODE
  linkctl sync  --domain NAME

Configuration is read from the environment, like the server.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprint(os.Stderr, usage)
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// command is one parsed subcommand, ready to run against a Core.
type command interface {
	exec(ctx context.Context, core *app.Core, out io.Writer) error
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cmd, err := parse(args)
	if err != nil {
		return err
	}

	if err := app.LoadEnv(); err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}
	cfg, err := config.LoadCLI()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	// Migrations belong to the server.
	cfg.Database.Migrate = false

	core, err := app.NewCore(ctx, cfg, app.SetupLogger(cfg.App.LogLevel))
	if err != nil {
		return err
	}
	defer core.Close()

	return cmd.exec(ctx, core, out)
}

func parse(args []string) (command, error) {
	if len(args) == 0 {
		return nil, pflag.ErrHelp
	}

	name, rest := args[0], args[1:]
	fs := pflag.NewFlagSet("linkctl "+name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var cmd command
	switch name {
	case "seed":
		c := &seedCmd{}
		fs.StringVar(&c.file, "file", "", "path to the seed YAML file")
		cmd = c
	case "code":
		c := &codeCmd{}
		fs.StringVar(&c.domain, "domain", "", "domain name")
		fs.IntVar(&c.count, "count", 1, "number of codes to allocate")
		cmd = c
	case "check":
		c := &checkCmd{}
		fs.StringVar(&c.domain, "domain", "", "domain name")
		fs.StringVar(&c.code, "code", "", "code to check")
		cmd = c
	case "sync":
		c := &syncCmd{}
		fs.StringVar(&c.domain, "domain", "", "domain name")
		cmd = c
	case "help", "-h", "--help":
		return nil, pflag.ErrHelp
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}

	if err := fs.Parse(rest); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if v, ok := cmd.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return cmd, nil
}

type seedCmd struct {
	file string
}

func (c *seedCmd) validate() error {
	if c.file == "" {
		return errors.New("--file is required")
	}
	return nil
}

func (c *seedCmd) exec(ctx context.Context, core *app.Core, out io.Writer) error {
	f, err := seed.Load(c.file)
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, core.Store, f)
	if err != nil {
		return fmt.Errorf("failed to apply seed: %w", err)
	}
	for _, d := range res.Domains {
		fmt.Fprintf(out, "domain\t%s\t%s\n", d.ID, d.Name)
	}
	for _, a := range res.Artists {
		fmt.Fprintf(out, "artist\t%s\t%s\n", a.ID, a.Name)
	}
	return nil
}

type codeCmd struct {
	domain string
	count  int
}

func (c *codeCmd) validate() error {
	if strings.TrimSpace(c.domain) == "" {
		return errors.New("--domain is required")
	}
	if c.count <= 0 {
		return errors.New("--count must be positive")
	}
	return nil
}

func (c *codeCmd) exec(ctx context.Context, core *app.Core, out io.Writer) error {
	d, err := lookupDomain(ctx, core.Store, c.domain)
	if err != nil {
		return err
	}
	for range c.count {
		code, err := core.Links.GenerateUniqueCode(ctx, d.ID)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, code)
	}
	return nil
}

type checkCmd struct {
	domain string
	code   string
}

func (c *checkCmd) validate() error {
	if strings.TrimSpace(c.domain) == "" {
		return errors.New("--domain is required")
	}
	if c.code == "" {
		return errors.New("--code is required")
	}
	return nil
}

func (c *checkCmd) exec(ctx context.Context, core *app.Core, out io.Writer) error {
	d, err := lookupDomain(ctx, core.Store, c.domain)
	if err != nil {
		return err
	}
	v, err := core.Links.CheckCode(ctx, d.ID, c.code)
	if err != nil {
		return err
	}
	if v.Conflicting != "" {
		fmt.Fprintf(out, "%s\t%s\t%s\n", v.Code, v.Reason, v.Conflicting)
		return nil
	}
	fmt.Fprintf(out, "%s\t%s\n", v.Code, v.Reason)
	return nil
}

type syncCmd struct {
	domain string
}

func (c *syncCmd) validate() error {
	if strings.TrimSpace(c.domain) == "" {
		return errors.New("--domain is required")
	}
	return nil
}

func (c *syncCmd) exec(ctx context.Context, core *app.Core, out io.Writer) error {
	d, err := lookupDomain(ctx, core.Store, c.domain)
	if err != nil {
		return err
	}
	n, err := core.Links.SyncDomain(ctx, d.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "published %d keys for %s\n", n, d.Name)
	return nil
}

func lookupDomain(ctx context.Context, q db.Querier, name string) (db.Domain, error) {
	d, err := q.GetDomainByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return db.Domain{}, fmt.Errorf("domain %q: %w", name, err)
	}
	return d, nil
}
