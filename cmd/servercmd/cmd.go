package servercmd

import (
	"context"
	"flag"
	"log"

	"github.com/mitchellh/cli"
	"github.com/prasastie/munggah/container"
	"github.com/prasastie/munggah/extd"
)

const (
	ExitSuccess = 0
	ExitErr     = -1
)

type Cmd struct {
	flags      *flag.FlagSet
	configFile string
}

func NewCmd() func() (cli.Command, error) {
	return func() (cli.Command, error) {
		cmd := &Cmd{}
		err := cmd.init()
		return cmd, err
	}
}

var _ cli.Command = (*Cmd)(nil)
var _ cli.CommandFactory = NewCmd()

func (c *Cmd) init() error {
	c.flags = flag.NewFlagSet("server", flag.ContinueOnError)
	c.flags.StringVar(&c.configFile, "config", "config.yml",
		"Config file to load")
	c.flags.StringVar(&c.configFile, "c", "config.yml",
		"Alias for config file to load")
	return nil
}

func (c *Cmd) Help() string {
	return `Serve the admin HTTP API: version inspection, upgrade trigger, accounts`
}

func (c *Cmd) Run(args []string) int {
	err := c.flags.Parse(args)
	if err != nil {
		log.Printf("error parsing config argument: %s", err)
		return ExitErr
	}

	cfg, err := container.LoadConfig(c.configFile)
	if err != nil {
		log.Printf("error load config: %s", err)
		return ExitErr
	}

	err = extd.RunServer(context.Background(), cfg)
	if err != nil {
		return ExitErr
	}

	return ExitSuccess
}

func (c *Cmd) Synopsis() string {
	return `Serve the admin HTTP API`
}
