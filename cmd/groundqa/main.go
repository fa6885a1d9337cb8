package main

import "groundqa/internal/cli"

func main() {
	cli.Execute()
}
