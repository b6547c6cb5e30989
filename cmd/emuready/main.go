// Command emuready browses the EmuReady catalogue and compatibility reports
// from the terminal.
package main

func main() {
	Execute()
}
