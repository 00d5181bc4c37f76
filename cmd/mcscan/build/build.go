package build

// Set at link time with -ldflags "-X github.com/sergeii/mcscan/cmd/mcscan/build.Version=..."
var (
	Version = "development"
	Commit  = "unknown"
	Time    = "unknown"
)
