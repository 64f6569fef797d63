package main

import (
	. "github.com/saylorsolutions/modmake"
)

const (
	encboxVersion = "0.1.0"
)

func main() {
	b := NewBuild()
	b.Generate().DependsOnRunner("tidy", "", Go().ModTidy())

	encbox := NewAppBuild("encbox", "cmd/encbox", encboxVersion)
	encbox.Build(func(gb *GoBuild) {
		gb.
			StripDebugSymbols().
			SetVariable("main", "version", encboxVersion).
			CgoEnabled(false)
	})
	encbox.Variant("windows", "amd64")
	encbox.Variant("linux", "amd64")
	encbox.Variant("linux", "arm64")
	encbox.Variant("darwin", "amd64")
	encbox.Variant("darwin", "arm64")
	b.ImportApp(encbox)

	b.Execute()
}
