package main

import "github.com/Achyuth-Papisetty/Teams-to-SFMC-Webhook/pkg/server"

func main() {
	server.Execute()
}
