// Command apctl operates the payables side of the ledger engine.
package main

func main() {
	Execute()
}
