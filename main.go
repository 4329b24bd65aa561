package main

import "github.com/WinnyKing57/WinClean-sub000/cmd"

// Set via ldflags:
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc -X main.date=2026-01-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)
	cmd.Execute()
}
