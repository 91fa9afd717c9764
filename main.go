package main

import "github.com/istale/auto-click-system/pkg/cli"

func main() {
	cli.Execute()
}
