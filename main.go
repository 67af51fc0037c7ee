/*
Copyright © 2025 caselens
*/
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/caselens/casefile-be/cmd"
)

func main() {
	cmd.Execute()
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, relying on environment")
	}
}
