// Command dtdemo exercises the reflection-driven serialization core
// (save/load/diff/merge/dump) against a small registered sample type.
package main

func main() {
	execute()
}
