package version

// Version is the semantic version of the application.
var Version = "0.2.0"

func GetCurrentVersion() string {
	return Version
}
