package main

import "github.com/KaramelBytes/cindex/cmd"

func main() {
	cmd.Execute()
}
