package main

import "youku-danmu-go/cli"

func main() {
	cli.Execute()
}
