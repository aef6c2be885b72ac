// Command msgcoach rewrites personal messages in a chosen tone with Gemini.
package main

import "github.com/diogo/msgcoach/internal/commands"

func main() {
	commands.Execute()
}
