package main

import (
	"os"

	flowchatcmder "github.com/papercomputeco/flowchat/cmd/flowchat"
)

func main() {
	cmd := flowchatcmder.NewFlowchatCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
