// cmd/rfpdesk/main.go
//
// This is the entry point for the rfpdesk CLI. Running `rfpdesk` from a
// project directory launches the interactive proposal workbench.

package main

func main() {
	Execute()
}
