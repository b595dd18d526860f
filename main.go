package main

import "github.com/KaramelBytes/claimvision-cli/cmd"

func main() {
	cmd.Execute()
}
