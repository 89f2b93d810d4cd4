package main

import (
	"gradescope-cli/cmd/gradescope/commands"
	"gradescope-cli/lib/util/serviceutil"
)

func main() {
	ctx, cancel := serviceutil.SignalContext()
	defer cancel()
	commands.ExecuteContext(ctx)
}
