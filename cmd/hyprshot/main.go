package main

import "github.com/shikoucore/hyprshot/cmd/hyprshot/commands"

func main() {
	commands.Execute()
}
