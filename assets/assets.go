package assets

import (
	_ "embed"
)

//go:embed config.tengo
var Config []byte
