package main

import (
	"log"
	"os"

	_ "github.com/lib/pq"

	"github.com/mitchellh/cli"
	"github.com/prasastie/munggah/assets"
	"github.com/prasastie/munggah/cmd/initdbcmd"
	"github.com/prasastie/munggah/cmd/servercmd"
	"github.com/prasastie/munggah/cmd/upgradecmd"
)

func main() {
	serverCmd := servercmd.NewCmd()

	c := cli.NewCLI(assets.ServiceName, assets.Version)
	c.Args = os.Args[1:]
	c.Autocomplete = true
	c.Commands = map[string]cli.CommandFactory{
		"":        serverCmd, // default command if no subcommand defined
		"server":  serverCmd,
		"upgrade": upgradecmd.NewCmd(),
		"initdb":  initdbcmd.NewCmd(),
	}

	exitStatus, err := c.Run()
	if err != nil {
		log.Println(err)
	}

	os.Exit(exitStatus)
}
