// Command qrlogin runs a platform QR login from the terminal.
package main

import "github.com/dvd/backend/cmd/qrlogin/cmd"

func main() {
	cmd.Execute()
}
