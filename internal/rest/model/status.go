package model

type Status struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	BuiltAt string `json:"built_at"`
	Uptime  int64  `json:"uptime_seconds"`
}
