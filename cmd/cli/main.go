package main

import (
	"github.com/pmorrell/surveyid/internal/cli"
)

func main() {
	cli.Execute()
}
