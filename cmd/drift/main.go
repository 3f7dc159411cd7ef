// Command drift runs the particle hero effect in a window, in a terminal,
// or headless to PNG.
package main

func main() {
	Execute()
}
