package main

import "github.com/mj1618/wingman/cmd"

func main() {
	cmd.Execute()
}
