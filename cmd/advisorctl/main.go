package main

import "github.com/SpherenexLabs/npk/cmd/advisorctl/commands"

func main() {
	commands.Execute()
}
