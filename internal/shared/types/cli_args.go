package types

// CLIArgs represents the raw command-line arguments, before period parsing
// and config merging resolve them into a report request.
type CLIArgs struct {
	ConfigFile string
	Mode       string
	Period     string
	Format     string
	Profile    string
	Region     string
	Dir        string
	S3Bucket   string
}
