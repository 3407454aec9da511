// Command gdreg trains and applies regularized gradient-descent linear
// regression models on CSV data.
package main

import (
	"fmt"
	"os"
)

func main() {
	cmd, closeLog := newRootCmd()
	err := cmd.Execute()
	if cerr := closeLog(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
