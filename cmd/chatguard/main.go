// chatguard blocks contact details in marketplace chat messages.
package main

import "github.com/ppiankov/chatguard/internal/cli"

func main() {
	cli.Execute()
}
