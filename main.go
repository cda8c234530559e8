////////////////////////////////////////////////////////////////////////////////
// Okinoko Gov: proposal, voting and execution engine for a staked DAO
////////////////////////////////////////////////////////////////////////////////

package main

import (
	"okinoko_gov/internal/cli"
)

func main() {
	cli.Execute()
}
