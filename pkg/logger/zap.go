package logger

import "go.uber.org/zap"

// NewCLI builds the zap logger used by the command line tool. Verbose
// switches to the human readable development encoder at debug level.
func NewCLI(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
