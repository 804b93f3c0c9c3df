package main

import "github.com/naka-gawa/namespace-stats/cmd"

func main() {
	cmd.Execute()
}
