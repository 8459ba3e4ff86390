package main

import (
	"github.com/ovenrush/matchcore/internal/cli"
)

func main() {
	cli.Execute()
}
