package main

import (
	"fmt"
	"os"
	"strings"

	"vox/internal/ipc"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: vox-ctl <words...>")
		os.Exit(2)
	}

	err := ipc.SendCommand(ipc.SocketPath, ipc.ControlMessage{
		Cmd:  ipc.CmdSay,
		Text: strings.Join(os.Args[1:], " "),
	})
	if err != nil {
		fmt.Println("vox not running:", err)
		os.Exit(1)
	}
}
