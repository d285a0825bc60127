package main

import "github.com/KaramelBytes/mdpl-cli/cmd"

func main() {
	cmd.Execute()
}
