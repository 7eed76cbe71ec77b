package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/ahmedelsaid/portfolio/cmd"
)

func main() {
	cmd.Execute()
}
