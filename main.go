package main

import "github.com/KaramelBytes/tabrec-cli/cmd"

func main() {
	cmd.Execute()
}
