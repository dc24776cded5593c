package main

import (
	"github.com/openaudit/a11yscan/cmd"
	"github.com/openaudit/a11yscan/internal/config"
)

func main() {
	config.LoadConfig()
	cmd.Execute()
}
