package main

import (
	// Embedded zone database so Africa/Porto-Novo resolves on minimal images.
	_ "time/tzdata"
)

func main() {
	Execute()
}
