package main

import "video-factcheck-go/internal/cli"

func main() {
	cli.Main()
}
