package main

import "kiosk-service/cmd"

func main() {
	cmd.Execute()
}
