package main

import (
	"os"

	"github.com/williamokano/mysql_backuper/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
