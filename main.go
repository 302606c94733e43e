package main

import "github.com/naka-gawa/topic-pr-report/cmd"

func main() {
	cmd.Execute()
}
