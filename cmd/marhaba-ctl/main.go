package main

import (
	"fmt"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"marhaba/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", os.Getenv("CONTROL_SOCKET"), "Control socket path")
	cli.Parse()

	text := strings.Join(cli.Args(), " ")
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(os.Stderr, "usage: marhaba-ctl [-s socket] <text>")
		os.Exit(2)
	}

	if err := ipc.SendCommand(*socket, ipc.Say(text)); err != nil {
		fmt.Fprintln(os.Stderr, "marhaba not running:", err)
		os.Exit(1)
	}
}
